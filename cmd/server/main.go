package main

import (
	"fmt"
	"os"

	"ridecare-backend/internal/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	verbose bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ridecare",
	Short: "RideCare backend: driver state store and API",
	Long: `RideCare keeps a single driver's profile, vehicles, rides and maintenance
records in a durable slot store and serves them over HTTP and websockets.

Run without arguments to start the API server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}

		zapConfig := zap.NewProductionConfig()
		if verbose || cfg.LogLevel == "debug" {
			zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		} else if level, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
			zapConfig.Level = zap.NewAtomicLevelAt(level)
		}
		logger, err = zapConfig.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE:  runServe,
}

var slotsCmd = &cobra.Command{
	Use:   "slots",
	Short: "Print the persisted slots of the configured backend",
	RunE:  runSlots,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.AddCommand(serveCmd, slotsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
