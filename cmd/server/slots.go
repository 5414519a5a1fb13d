package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ridecare-backend/internal/state"
	"ridecare-backend/pkg/storage"

	"github.com/spf13/cobra"
)

func runSlots(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	b, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close(logger)

	out := cmd.OutOrStdout()
	for _, slot := range state.Slots {
		raw, err := b.store.Get(ctx, slot)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			fmt.Fprintf(out, "%s: <empty>\n", slot)
		case err != nil:
			return fmt.Errorf("reading slot %s: %w", slot, err)
		default:
			fmt.Fprintf(out, "%s: %s\n", slot, raw)
		}
	}
	return nil
}
