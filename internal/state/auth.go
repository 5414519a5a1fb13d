package state

import (
	"context"
	"errors"
	"fmt"

	"ridecare-backend/internal/models"
	"ridecare-backend/pkg/storage"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// SignUp creates the single local user. The profile is validated by the
// caller. The user slot is written before memory changes, so a storage
// failure is returned with the state untouched.
func (s *Store) SignUp(ctx context.Context, profile models.Profile) (*models.User, error) {
	var (
		out *models.User
		err error
	)
	if serr := s.submit(ctx, func(ctx context.Context) {
		out, err = s.signUp(ctx, profile)
	}); serr != nil {
		return nil, serr
	}
	return out, err
}

func (s *Store) signUp(ctx context.Context, profile models.Profile) (*models.User, error) {
	user := models.User{
		ID:               s.newID(),
		FirstName:        profile.FirstName,
		Surname:          profile.Surname,
		Username:         profile.Username,
		Age:              profile.Age,
		EmergencyContact: profile.EmergencyContact,
		SpeedUnit:        profile.SpeedUnit,
		CreatedAt:        s.now(),
	}
	if profile.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(profile.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}

	entry, err := slotEntry(SlotUser, user)
	if err != nil {
		return nil, err
	}
	if err := s.persist(ctx, entry); err != nil {
		s.logger.Error("error signing up", zap.Error(err))
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	next := s.st
	next.currentUser = &user
	s.commit(next)

	out := user.Public()
	return &out, nil
}

// Login restores the persisted user. In AuthExistence mode the credentials
// are not checked: any username and password succeed once a user exists.
// Storage and decode failures are logged and reported as false.
func (s *Store) Login(ctx context.Context, username, password string) (bool, error) {
	var ok bool
	if err := s.submit(ctx, func(ctx context.Context) {
		ok = s.login(ctx, username, password)
	}); err != nil {
		return false, err
	}
	return ok, nil
}

func (s *Store) login(ctx context.Context, username, password string) bool {
	raw, err := s.backend.Get(ctx, SlotUser)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Error("error logging in", zap.Error(err))
		}
		return false
	}

	var user models.User
	if err := s.decodeStruct(raw, &user); err != nil {
		s.logger.Error("error logging in: stored user unreadable", zap.Error(err))
		return false
	}

	if s.authMode == AuthPassword {
		if user.PasswordHash == "" || user.Username != username {
			return false
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
			return false
		}
	}

	next := s.st
	next.currentUser = &user
	s.commit(next)
	return true
}

// Logout clears the in-memory session. Persisted data is kept so a later
// Login restores the same profile.
func (s *Store) Logout(ctx context.Context) error {
	return s.submit(ctx, func(ctx context.Context) {
		next := s.st
		next.currentUser = nil
		s.commit(next)
	})
}

// CurrentUserID returns the signed-in user's id, if any.
func (s *Store) CurrentUserID() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.st.currentUser == nil {
		return "", false
	}
	return s.st.currentUser.ID, true
}
