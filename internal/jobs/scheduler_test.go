package jobs

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/metrics"
	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietScheduler(cfg SchedulerConfig) *Scheduler {
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard, "", 0)
	}
	return NewScheduler(cfg)
}

func countingSweep(name string, calls *int32) Sweep {
	return Sweep{
		Name: name,
		Run: func(ctx context.Context) (*service.SweepResult, error) {
			atomic.AddInt32(calls, 1)
			return &service.SweepResult{Name: name, Matched: 2, Processed: 2}, nil
		},
	}
}

// ============================================================================
// Registration Tests
// ============================================================================

func TestRegister_RejectsDuplicateAndBadSpec(t *testing.T) {
	t.Parallel()
	s := quietScheduler(SchedulerConfig{})
	var calls int32

	require.NoError(t, s.Register(countingSweep("report-expiry", &calls)))
	assert.Error(t, s.Register(countingSweep("report-expiry", &calls)))

	bad := countingSweep("broken", &calls)
	bad.Spec = "every now and then"
	assert.Error(t, s.Register(bad))

	assert.Error(t, s.Register(Sweep{Name: "no-func"}))
	assert.Equal(t, []string{"report-expiry"}, s.Names())
}

func TestDefaultSweeps_NamesAndSpecs(t *testing.T) {
	t.Parallel()
	s := quietScheduler(SchedulerConfig{})

	sweeps := DefaultSweeps(
		service.NewExpiryService(service.ExpiryServiceConfig{}),
		service.NewRestrictionService(service.RestrictionServiceConfig{}),
		DefaultSchedules(),
	)
	for _, sw := range sweeps {
		require.NoError(t, s.Register(sw))
	}

	assert.Equal(t, []string{
		service.SweepReportExpiry,
		service.SweepResolvedCleanup,
		service.SweepRestrictionCleanup,
	}, s.Names())
}

// ============================================================================
// RunOnce Tests
// ============================================================================

func TestRunOnce_UnknownSweep(t *testing.T) {
	t.Parallel()
	s := quietScheduler(SchedulerConfig{})

	_, err := s.RunOnce(context.Background(), "nope")

	assert.ErrorIs(t, err, service.ErrUnknownSweep)
}

func TestRunOnce_RecordsMetricsAndLogsSummary(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	var mu sync.Mutex
	m := metrics.New(prometheus.NewRegistry())
	s := NewScheduler(SchedulerConfig{Metrics: m, Logger: log.New(&lockedWriter{w: &buf, mu: &mu}, "", 0)})
	var calls int32
	require.NoError(t, s.Register(countingSweep("report-expiry", &calls)))

	result, err := s.RunOnce(context.Background(), "report-expiry")

	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SweepRuns.WithLabelValues("report-expiry", "complete")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SweepItems.WithLabelValues("report-expiry", "processed")))
	mu.Lock()
	assert.Contains(t, buf.String(), "processed 2 of 2")
	mu.Unlock()
}

func TestRunOnce_BoundedByTimeout(t *testing.T) {
	t.Parallel()
	s := quietScheduler(SchedulerConfig{Timeout: 20 * time.Millisecond})
	require.NoError(t, s.Register(Sweep{
		Name: "slow",
		Run: func(ctx context.Context) (*service.SweepResult, error) {
			<-ctx.Done()
			return &service.SweepResult{Name: "slow", Matched: 10, Processed: 3, Partial: true}, nil
		},
	}))

	start := time.Now()
	result, err := s.RunOnce(context.Background(), "slow")

	require.NoError(t, err)
	assert.True(t, result.Partial)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRunOnce_ErrorStillObserved(t *testing.T) {
	t.Parallel()
	m := metrics.New(prometheus.NewRegistry())
	s := quietScheduler(SchedulerConfig{Metrics: m})
	require.NoError(t, s.Register(Sweep{
		Name: "failing",
		Run: func(context.Context) (*service.SweepResult, error) {
			return nil, errors.New("db down")
		},
	}))

	result, err := s.RunOnce(context.Background(), "failing")

	assert.Error(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "failing", result.Name)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SweepRuns.WithLabelValues("failing", "complete")))
}

// ============================================================================
// Lifecycle Tests
// ============================================================================

func TestScheduler_StartStop(t *testing.T) {
	t.Parallel()
	s := quietScheduler(SchedulerConfig{})
	var calls int32
	sweep := countingSweep("tick", &calls)
	sweep.Spec = "@every 1h"
	require.NoError(t, s.Register(sweep))

	assert.False(t, s.IsRunning())
	assert.True(t, s.Next("tick").IsZero())

	s.Start()
	s.Start()
	assert.True(t, s.IsRunning())
	assert.Eventually(t, func() bool { return !s.Next("tick").IsZero() }, time.Second, 10*time.Millisecond)

	s.Stop()
	s.Stop()
	assert.False(t, s.IsRunning())
}

func TestScheduler_FiresOnSchedule(t *testing.T) {
	t.Parallel()
	s := quietScheduler(SchedulerConfig{})
	var calls int32
	sweep := countingSweep("fast", &calls)
	sweep.Spec = "@every 1s"
	require.NoError(t, s.Register(sweep))

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&calls) >= 1 }, 3*time.Second, 50*time.Millisecond)
}

type lockedWriter struct {
	w  io.Writer
	mu *sync.Mutex
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
