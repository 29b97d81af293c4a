// Package main provides raasta-admin, the operator CLI for Raasta Sathi.
// It mints admin tokens and runs maintenance tasks against the database
// the API server uses.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/config"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/database"
)

const (
	Version = "0.1.0"
	appName = "raasta-admin"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Raasta Sathi operator tools",
		Long: `raasta-admin runs operator tasks for the Raasta Sathi backend.

It provides:
- Signing key generation and admin token minting
- Legacy report status migration
- Points recalculation for one or all users
- Manual runs of the background sweeps

Database commands read the same environment (.env) as the API server.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			switch strings.ToLower(logLevel) {
			case "debug":
				level = slog.LevelDebug
			case "warn":
				level = slog.LevelWarn
			case "error":
				level = slog.LevelError
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		keysCmd(),
		tokenCmd(),
		migrateStatusesCmd(),
		recalculatePointsCmd(),
		sweepCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Printf("%s version %s\n", appName, Version)
			},
		},
	)

	return cmd
}

// connect loads configuration and opens the database. The caller closes it.
func connect(ctx context.Context) (*config.Config, *database.SurrealDB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	db := database.NewSurrealDB(database.Config{
		Host:      cfg.Database.Host,
		Port:      cfg.Database.Port,
		User:      cfg.Database.User,
		Password:  cfg.Database.Password,
		Namespace: cfg.Database.Namespace,
		Database:  cfg.Database.Database,
		Timeout:   cfg.Database.QueryTimeout,
	})
	if err := db.Connect(ctx); err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	slog.Debug("connected to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Database),
	)
	return cfg, db, nil
}
