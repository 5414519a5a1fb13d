package state

import (
	"context"
	"sync"
	"time"

	"ridecare-backend/internal/models"
	"ridecare-backend/pkg/storage"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AuthMode string

const (
	// AuthExistence accepts any credentials once a user has been persisted.
	AuthExistence AuthMode = "existence"
	// AuthPassword checks the username and the bcrypt hash taken at sign-up.
	AuthPassword AuthMode = "password"
)

// Snapshot is a deep copy of the store's state as views see it.
type Snapshot struct {
	IsLoading         bool                      `json:"isLoading"`
	IsAuthenticated   bool                      `json:"isAuthenticated"`
	CurrentUser       *models.User              `json:"currentUser"`
	Vehicles          []models.Vehicle          `json:"vehicles"`
	CurrentVehicle    *models.Vehicle           `json:"currentVehicle"`
	Rides             []models.Ride             `json:"rides"`
	MaintenanceLogs   []models.MaintenanceLog   `json:"maintenanceLogs"`
	MaintenanceAlerts []models.MaintenanceAlert `json:"maintenanceAlerts"`
	Theme             models.Theme              `json:"theme"`
}

// appState is replaced wholesale on every commit; its slices are never
// mutated in place once committed.
type appState struct {
	currentUser       *models.User
	vehicles          []models.Vehicle
	currentVehicle    *models.Vehicle
	rides             []models.Ride
	maintenanceLogs   []models.MaintenanceLog
	maintenanceAlerts []models.MaintenanceAlert
	theme             models.Theme
}

func defaultState() appState {
	return appState{
		vehicles:          []models.Vehicle{},
		rides:             []models.Ride{},
		maintenanceLogs:   []models.MaintenanceLog{},
		maintenanceAlerts: []models.MaintenanceAlert{},
		theme:             models.ThemeDefault,
	}
}

type operation struct {
	ctx  context.Context
	run  func(ctx context.Context)
	done chan struct{}
}

// Store owns session and domain state. Every mutation runs on a single
// worker goroutine, so each one sees the result of the previous.
type Store struct {
	backend  storage.Store
	logger   *zap.Logger
	validate *validator.Validate
	now      func() time.Time
	newID    func() string
	authMode AuthMode

	mu      sync.RWMutex
	st      appState
	loading bool
	loaded  bool

	ops    chan operation
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	subMu   sync.Mutex
	subs    map[int]chan Snapshot
	nextSub int
}

type Option func(*Store)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

func WithAuthMode(mode AuthMode) Option {
	return func(s *Store) { s.authMode = mode }
}

// New creates the store and starts its worker. Call Load before serving
// views and Close when done.
func New(backend storage.Store, opts ...Option) *Store {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Store{
		backend:  backend,
		logger:   zap.NewNop(),
		validate: validator.New(),
		now:      time.Now,
		newID:    uuid.NewString,
		authMode: AuthExistence,
		st:       defaultState(),
		loading:  true,
		ops:      make(chan operation),
		ctx:      ctx,
		cancel:   cancel,
		subs:     make(map[int]chan Snapshot),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("state")

	s.wg.Add(1)
	go s.worker()

	return s
}

func (s *Store) worker() {
	defer s.wg.Done()

	for {
		select {
		case op := <-s.ops:
			op.run(op.ctx)
			close(op.done)
		case <-s.ctx.Done():
			return
		}
	}
}

// submit hands fn to the worker and waits for it. Once the worker has taken
// fn it runs to completion even if ctx is cancelled meanwhile.
func (s *Store) submit(ctx context.Context, fn func(ctx context.Context)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.ctx.Err() != nil {
		return ErrClosed
	}

	op := operation{
		ctx:  context.WithoutCancel(ctx),
		run:  fn,
		done: make(chan struct{}),
	}

	select {
	case s.ops <- op:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.ctx.Done():
		return ErrClosed
	}

	select {
	case <-op.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the worker and closes every subscription. It does not close
// the backend.
func (s *Store) Close() error {
	s.cancel()
	s.wg.Wait()

	s.subMu.Lock()
	defer s.subMu.Unlock()
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
	return nil
}

// Loading reports whether the initial load has not finished yet.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		IsLoading:         s.loading,
		IsAuthenticated:   s.st.currentUser != nil,
		Vehicles:          append([]models.Vehicle{}, s.st.vehicles...),
		Rides:             make([]models.Ride, len(s.st.rides)),
		MaintenanceLogs:   append([]models.MaintenanceLog{}, s.st.maintenanceLogs...),
		MaintenanceAlerts: append([]models.MaintenanceAlert{}, s.st.maintenanceAlerts...),
		Theme:             s.st.theme,
	}
	if s.st.currentUser != nil {
		u := s.st.currentUser.Public()
		snap.CurrentUser = &u
	}
	if s.st.currentVehicle != nil {
		v := *s.st.currentVehicle
		snap.CurrentVehicle = &v
	}
	for i, r := range s.st.rides {
		snap.Rides[i] = cloneRide(r)
	}
	return snap
}

// Subscribe returns a channel receiving a snapshot after every committed
// change, and a cancel func. A subscriber that falls behind misses
// snapshots rather than blocking the store.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)

	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()

	return ch, func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if c, ok := s.subs[id]; ok {
			close(c)
			delete(s.subs, id)
		}
	}
}

// commit publishes next as the current state. Only the worker calls it.
func (s *Store) commit(next appState) {
	s.mu.Lock()
	s.st = next
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snap)
}

func (s *Store) publish(snap Snapshot) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for id, ch := range s.subs {
		select {
		case ch <- snap:
		default:
			s.logger.Debug("subscriber behind, dropping snapshot", zap.Int("subscriber", id))
		}
	}
}

// persist writes entries through the backend, as one transaction when there
// is more than one.
func (s *Store) persist(ctx context.Context, entries ...storage.Entry) error {
	switch len(entries) {
	case 0:
		return nil
	case 1:
		return s.backend.Set(ctx, entries[0].Key, entries[0].Value)
	default:
		return s.backend.SetMany(ctx, entries)
	}
}

func cloneRide(r models.Ride) models.Ride {
	r.SpeedData = append([]models.SpeedData{}, r.SpeedData...)
	if r.EndTime != nil {
		t := *r.EndTime
		r.EndTime = &t
	}
	return r
}
