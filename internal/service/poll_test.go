package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/AnkitSingh-ai/raasta-sathi-sub001/internal/model"
)

// pollLedger is an in-memory CastPollVote that applies the same rules as the
// database query: one entry per voter, closing only open reports.
type pollLedger struct {
	mu     sync.Mutex
	report *model.Report
}

func (l *pollLedger) get(_ context.Context, id string) (*model.Report, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if id != l.report.ID {
		return nil, nil
	}
	cp := *l.report
	cp.Poll.Votes = append([]model.PollVote(nil), l.report.Poll.Votes...)
	return &cp, nil
}

func (l *pollLedger) cast(_ context.Context, id, userID string, choice model.PollChoice, selfResolve bool, threshold int) (*model.Report, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r := l.report
	if r.ID != id || !r.Status.IsOpen() {
		return nil, nil
	}

	votes := make([]model.PollVote, 0, len(r.Poll.Votes)+1)
	for _, v := range r.Poll.Votes {
		if v.UserID != userID {
			votes = append(votes, v)
		}
	}
	votes = append(votes, model.PollVote{UserID: userID, Choice: choice, VotedAt: time.Now()})
	r.Poll.Votes = votes
	r.Poll.PollTally = model.TallyOf(votes)

	switch {
	case selfResolve:
		r.Status = model.ReportStatusResolved
	case r.Poll.Fake >= threshold:
		r.Status = model.ReportStatusFake
	}
	cp := *r
	return &cp, nil
}

func newLedgerPoll(r *model.Report, users *mockUserRepo) (*PollService, *pollLedger, *mockReportRepo) {
	ledger := &pollLedger{report: r}
	reports := &mockReportRepo{getByIDFunc: ledger.get, castPollVoteFunc: ledger.cast}
	svc := NewPollService(PollServiceConfig{
		Reports:      reports,
		Points:       NewPointsService(PointsServiceConfig{Reports: reports, Users: users}),
		Restrictions: NewRestrictionService(RestrictionServiceConfig{Users: users}),
	})
	return svc, ledger, reports
}

func TestCastVote_InvalidChoice(t *testing.T) {
	t.Parallel()
	svc, _, _ := newLedgerPoll(activeReport("report:1"), &mockUserRepo{})

	_, err := svc.CastVote(context.Background(), other, "report:1", "maybe")

	if !errors.Is(err, ErrInvalidPollChoice) {
		t.Errorf("expected ErrInvalidPollChoice, got %v", err)
	}
}

func TestCastVote_TerminalReport_NotTouched(t *testing.T) {
	t.Parallel()
	called := false
	reports := &mockReportRepo{
		getByIDFunc: fixedReport(reportWithStatus("report:1", model.ReportStatusResolved)),
		castPollVoteFunc: func(context.Context, string, string, model.PollChoice, bool, int) (*model.Report, error) {
			called = true
			return nil, nil
		},
	}
	svc := NewPollService(PollServiceConfig{Reports: reports})

	_, err := svc.CastVote(context.Background(), other, "report:1", "fake")

	if !errors.Is(err, ErrReportTerminal) {
		t.Errorf("expected ErrReportTerminal, got %v", err)
	}
	if called {
		t.Error("expected no write against a closed report")
	}
}

func TestCastVote_MissingReport(t *testing.T) {
	t.Parallel()
	svc := NewPollService(PollServiceConfig{Reports: &mockReportRepo{}})

	if _, err := svc.CastVote(context.Background(), other, "report:404", "fake"); !errors.Is(err, ErrReportNotFound) {
		t.Errorf("expected ErrReportNotFound, got %v", err)
	}
}

func TestCastVote_RevoteReplacesEarlierChoice(t *testing.T) {
	t.Parallel()
	svc, ledger, _ := newLedgerPoll(activeReport("report:1"), &mockUserRepo{})
	ctx := context.Background()

	if _, err := svc.CastVote(ctx, other, "report:1", "stillThere"); err != nil {
		t.Fatalf("first vote: %v", err)
	}
	result, err := svc.CastVote(ctx, other, "report:1", "fake")
	if err != nil {
		t.Fatalf("second vote: %v", err)
	}

	if result.Tally != (model.PollTally{Fake: 1}) {
		t.Errorf("expected only the latest vote counted, got %+v", result.Tally)
	}
	if n := len(ledger.report.Poll.Votes); n != 1 {
		t.Errorf("expected one ledger entry per voter, got %d", n)
	}
}

func TestCastVote_ReporterResolvedClosesImmediately(t *testing.T) {
	t.Parallel()
	users := &mockUserRepo{}
	svc, _, _ := newLedgerPoll(activeReport("report:1"), users)

	result, err := svc.CastVote(context.Background(), citizen, "report:1", "resolved")

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.SelfResolved || result.Status != model.ReportStatusResolved {
		t.Errorf("expected self-resolve, got %+v", result)
	}
	if _, ok := users.scoreOf(citizen.UserID); !ok {
		t.Error("expected reporter points to be refreshed after closing")
	}
}

func TestCastVote_OtherUserResolvedStaysOpen(t *testing.T) {
	t.Parallel()
	svc, _, _ := newLedgerPoll(activeReport("report:1"), &mockUserRepo{})

	result, err := svc.CastVote(context.Background(), other, "report:1", "resolved")

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.SelfResolved || result.Status != model.ReportStatusActive {
		t.Errorf("expected report to stay Active, got %+v", result)
	}
}

func TestCastVote_FakeThresholdMarksFakeAndRestricts(t *testing.T) {
	t.Parallel()
	users := &mockUserRepo{}
	svc, _, _ := newLedgerPoll(activeReport("report:1"), users)
	ctx := context.Background()

	voters := []Actor{
		{UserID: "user:a", Role: model.UserRoleCitizen},
		{UserID: "user:b", Role: model.UserRoleCitizen},
		{UserID: "user:c", Role: model.UserRoleCitizen},
	}
	var last *model.VoteResult
	for i, v := range voters {
		result, err := svc.CastVote(ctx, v, "report:1", "fake")
		if err != nil {
			t.Fatalf("vote %d: %v", i, err)
		}
		if i < 2 && result.MarkedFake {
			t.Fatalf("marked fake after only %d votes", i+1)
		}
		last = result
	}

	if !last.MarkedFake || last.Status != model.ReportStatusFake {
		t.Fatalf("expected third fake vote to mark report fake, got %+v", last)
	}
	calls := users.restrictionCalls()
	if len(calls) != 1 || calls[0].userID != citizen.UserID {
		t.Fatalf("expected reporter restricted once, got %+v", calls)
	}
	if calls[0].duration != DefaultRestrictionDuration {
		t.Errorf("expected default duration, got %s", calls[0].duration)
	}

	if _, err := svc.CastVote(ctx, other, "report:1", "stillThere"); !errors.Is(err, ErrReportTerminal) {
		t.Errorf("expected votes on a fake report to be refused, got %v", err)
	}
}

func TestCastVote_ClosedBetweenReadAndWrite(t *testing.T) {
	t.Parallel()
	reports := &mockReportRepo{
		getByIDFunc: fixedReport(activeReport("report:1")),
		castPollVoteFunc: func(context.Context, string, string, model.PollChoice, bool, int) (*model.Report, error) {
			return nil, nil
		},
	}
	svc := NewPollService(PollServiceConfig{Reports: reports})

	if _, err := svc.CastVote(context.Background(), other, "report:1", "fake"); !errors.Is(err, ErrReportTerminal) {
		t.Errorf("expected ErrReportTerminal, got %v", err)
	}
}

func TestCastVote_ConcurrentVotersSingleEntryEach(t *testing.T) {
	t.Parallel()
	svc, ledger, _ := newLedgerPoll(activeReport("report:1"), &mockUserRepo{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			choice := "stillThere"
			if i%2 == 0 {
				choice = "resolved"
			}
			_, _ = svc.CastVote(ctx, other, "report:1", choice)
		}(i)
	}
	wg.Wait()

	if n := len(ledger.report.Poll.Votes); n != 1 {
		t.Errorf("expected a single ledger entry for one voter, got %d", n)
	}
}

func TestNewPollService_DefaultThreshold(t *testing.T) {
	t.Parallel()

	if got := NewPollService(PollServiceConfig{}).FakeThreshold(); got != DefaultFakeVoteThreshold {
		t.Errorf("expected %d, got %d", DefaultFakeVoteThreshold, got)
	}
	if got := NewPollService(PollServiceConfig{FakeThreshold: 5}).FakeThreshold(); got != 5 {
		t.Errorf("expected 5, got %d", got)
	}
}
