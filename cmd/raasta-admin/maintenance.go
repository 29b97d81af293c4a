package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/jobs"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/repository"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/service"
)

func migrateStatusesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate-statuses",
		Short: "Rewrite legacy report statuses to the current vocabulary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			_, db, err := connect(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			counts, err := repository.NewReportRepository(db).MigrateLegacyStatuses(ctx)
			if err != nil {
				return fmt.Errorf("migrate statuses: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(counts) == 0 {
				fmt.Fprintln(out, "No legacy statuses found")
				return nil
			}
			legacy := make([]string, 0, len(counts))
			for status := range counts {
				legacy = append(legacy, status)
			}
			sort.Strings(legacy)
			for _, status := range legacy {
				fmt.Fprintf(out, "%-12s %d\n", status, counts[status])
			}
			return nil
		},
	}
}

func recalculatePointsCmd() *cobra.Command {
	var (
		userID     string
		outputJSON bool
	)

	cmd := &cobra.Command{
		Use:   "recalculate-points",
		Short: "Recompute points, badges, and streaks from report history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			_, db, err := connect(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			points := service.NewPointsService(service.PointsServiceConfig{
				Reports: repository.NewReportRepository(db),
				Users:   repository.NewUserRepository(db),
			})

			var result any
			if userID != "" {
				result, err = points.RecalculateUser(ctx, userID)
			} else {
				result, err = points.RecalculateAll(ctx)
			}
			if err != nil {
				return fmt.Errorf("recalculate points: %w", err)
			}
			return printResult(cmd.OutOrStdout(), result, outputJSON)
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "Recalculate a single user (default: all users)")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "Output as JSON")
	return cmd
}

func sweepCmd() *cobra.Command {
	names := []string{service.SweepReportExpiry, service.SweepResolvedCleanup, service.SweepRestrictionCleanup}

	return &cobra.Command{
		Use:       "sweep <" + strings.Join(names, "|") + ">",
		Short:     "Run one background sweep immediately",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: names,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			cfg, db, err := connect(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			reports := repository.NewReportRepository(db)
			users := repository.NewUserRepository(db)
			points := service.NewPointsService(service.PointsServiceConfig{Reports: reports, Users: users})

			expiry := service.NewExpiryService(service.ExpiryServiceConfig{
				Reports:   reports,
				Points:    points,
				Retention: cfg.Scheduler.ResolvedRetention,
			})
			restrictions := service.NewRestrictionService(service.RestrictionServiceConfig{
				Users:    users,
				Duration: cfg.Moderation.RestrictionDuration,
			})

			scheduler := jobs.NewScheduler(jobs.SchedulerConfig{
				Timeout: cfg.Scheduler.Timeout,
				Logger:  log.New(cmd.ErrOrStderr(), "sweep: ", log.LstdFlags),
			})
			// Empty specs register the sweeps for manual runs only
			for _, sweep := range jobs.DefaultSweeps(expiry, restrictions, jobs.Schedules{}) {
				if err := scheduler.Register(sweep); err != nil {
					return err
				}
			}

			result, err := scheduler.RunOnce(ctx, args[0])
			if err != nil {
				return fmt.Errorf("run %s: %w", args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.String())
			return nil
		},
	}
}

func printResult(w io.Writer, v any, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var fields map[string]any
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%-14s %v\n", k+":", fields[k])
	}
	return nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
