package state

import (
	"context"

	"ridecare-backend/internal/models"

	"go.uber.org/zap"
)

// UpdateTheme sets the display theme. A storage failure is logged and the
// theme still applies for this session.
func (s *Store) UpdateTheme(ctx context.Context, theme models.Theme) error {
	if !theme.Valid() {
		return ErrInvalidTheme
	}
	return s.submit(ctx, func(ctx context.Context) {
		next := s.st
		next.theme = theme
		s.commit(next)

		entry, err := slotEntry(SlotTheme, theme)
		if err == nil {
			err = s.persist(ctx, entry)
		}
		if err != nil {
			s.logger.Error("error updating theme", zap.String("theme", string(theme)), zap.Error(err))
		}
	})
}
