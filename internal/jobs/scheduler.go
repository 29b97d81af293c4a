package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/metrics"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/service"
	"github.com/robfig/cron/v3"
)

// DefaultSweepTimeout bounds a single sweep run when none is configured
const DefaultSweepTimeout = 2 * time.Minute

// SweepFunc performs one pass of a sweep
type SweepFunc func(ctx context.Context) (*service.SweepResult, error)

// Sweep is a named, scheduled unit of background work
type Sweep struct {
	Name string
	Spec string // Cron spec, e.g. "@every 5m"
	Run  SweepFunc
}

// Schedules holds the cron spec for each built-in sweep
type Schedules struct {
	ReportExpiry       string
	ResolvedCleanup    string
	RestrictionCleanup string
}

// DefaultSchedules returns the built-in sweep cadence
func DefaultSchedules() Schedules {
	return Schedules{
		ReportExpiry:       "@every 5m",
		ResolvedCleanup:    "@hourly",
		RestrictionCleanup: "@every 6h",
	}
}

// DefaultSweeps wires the built-in sweeps to their services
func DefaultSweeps(expiry *service.ExpiryService, restrictions *service.RestrictionService, schedules Schedules) []Sweep {
	return []Sweep{
		{Name: service.SweepReportExpiry, Spec: schedules.ReportExpiry, Run: expiry.ExpireDue},
		{Name: service.SweepResolvedCleanup, Spec: schedules.ResolvedCleanup, Run: expiry.ArchiveResolved},
		{Name: service.SweepRestrictionCleanup, Spec: schedules.RestrictionCleanup, Run: restrictions.ClearExpired},
	}
}

// Scheduler runs registered sweeps on their cron schedules
type Scheduler struct {
	cron    *cron.Cron
	logger  *log.Logger
	timeout time.Duration
	metrics *metrics.Metrics

	mu      sync.Mutex
	sweeps  map[string]Sweep
	entries map[string]cron.EntryID
	running bool
}

// SchedulerConfig holds configuration for the scheduler
type SchedulerConfig struct {
	Timeout time.Duration // Per-run bound (default 2 minutes)
	Metrics *metrics.Metrics
	Logger  *log.Logger // Default: stdout with a "scheduler: " prefix
}

// NewScheduler creates a scheduler. Sweeps never overlap with themselves and
// panics inside a sweep are recovered.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultSweepTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stdout, "scheduler: ", log.LstdFlags)
	}

	cronLogger := cron.PrintfLogger(cfg.Logger)
	c := cron.New(
		cron.WithLogger(cronLogger),
		cron.WithChain(
			cron.Recover(cronLogger),
			cron.SkipIfStillRunning(cronLogger),
		),
	)

	return &Scheduler{
		cron:    c,
		logger:  cfg.Logger,
		timeout: cfg.Timeout,
		metrics: cfg.Metrics,
		sweeps:  make(map[string]Sweep),
		entries: make(map[string]cron.EntryID),
	}
}

// Register adds a sweep under its name. An empty spec registers the sweep for
// manual runs only.
func (s *Scheduler) Register(sweep Sweep) error {
	if sweep.Name == "" || sweep.Run == nil {
		return errors.New("sweep needs a name and a run function")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sweeps[sweep.Name]; exists {
		return fmt.Errorf("sweep %q already registered", sweep.Name)
	}

	if sweep.Spec != "" {
		id, err := s.cron.AddFunc(sweep.Spec, func() {
			_, _ = s.execute(context.Background(), sweep)
		})
		if err != nil {
			return fmt.Errorf("invalid schedule %q for sweep %s: %w", sweep.Spec, sweep.Name, err)
		}
		s.entries[sweep.Name] = id
	}
	s.sweeps[sweep.Name] = sweep
	return nil
}

// Names returns the registered sweep names in sorted order
func (s *Scheduler) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.sweeps))
	for name := range s.sweeps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Next returns when the named sweep will next fire. It is zero when the
// scheduler is stopped or the sweep is manual only.
func (s *Scheduler) Next(name string) time.Time {
	s.mu.Lock()
	id, ok := s.entries[name]
	s.mu.Unlock()
	if !ok {
		return time.Time{}
	}
	return s.cron.Entry(id).Next
}

// Start begins running sweeps on their schedules
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	count := len(s.entries)
	s.mu.Unlock()

	s.cron.Start()
	s.logger.Printf("Scheduler started (%d scheduled sweeps, timeout %v)", count, s.timeout)
}

// Stop halts the schedule and waits for running sweeps to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.logger.Println("Scheduler stopped")
}

// IsRunning returns whether the scheduler is running
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// RunOnce runs the named sweep immediately (for testing or manual trigger)
func (s *Scheduler) RunOnce(ctx context.Context, name string) (*service.SweepResult, error) {
	s.mu.Lock()
	sweep, ok := s.sweeps[name]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", service.ErrUnknownSweep, name)
	}
	return s.execute(ctx, sweep)
}

// execute runs one bounded pass and records its outcome
func (s *Scheduler) execute(parent context.Context, sweep Sweep) (*service.SweepResult, error) {
	ctx, cancel := context.WithTimeout(parent, s.timeout)
	defer cancel()

	start := time.Now()
	result, err := sweep.Run(ctx)
	elapsed := time.Since(start)

	if result == nil {
		result = &service.SweepResult{Name: sweep.Name, Duration: elapsed}
	}
	if err != nil {
		s.logger.Printf("Error running %s: %v", sweep.Name, err)
	} else {
		s.logger.Println(result.String())
	}

	s.metrics.ObserveSweep(sweep.Name, result.Processed, result.Failed, result.Partial, elapsed)
	return result, err
}
