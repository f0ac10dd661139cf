package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"nurture_backend/internal/nurture/domain"
	"nurture_backend/internal/nurture/repository"
	"nurture_backend/internal/nurture/stage"
	"nurture_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeSweepStore struct {
	mu       sync.Mutex
	due      []repository.Lead
	claimErr error

	recorded []repository.RecordSendParams
	released []uuid.UUID
	disabled []uuid.UUID
}

func (f *fakeSweepStore) ClaimDue(ctx context.Context, now time.Time, limit int) ([]repository.Lead, error) {
	if f.claimErr != nil {
		return nil, f.claimErr
	}
	if limit > len(f.due) {
		limit = len(f.due)
	}
	return f.due[:limit], nil
}

func (f *fakeSweepStore) ReleaseClaim(ctx context.Context, leadID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, leadID)
	return nil
}

func (f *fakeSweepStore) RecordSend(ctx context.Context, p repository.RecordSendParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded = append(f.recorded, p)
	return nil
}

func (f *fakeSweepStore) DisableNurture(ctx context.Context, leadID uuid.UUID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disabled = append(f.disabled, leadID)
	return nil
}

type fakeSender struct {
	mu    sync.Mutex
	sent  []string
	fails map[string]error
}

func (f *fakeSender) Send(ctx context.Context, to, body string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.fails[to]; ok {
		return "", err
	}
	f.sent = append(f.sent, to)
	return "prov-" + to, nil
}

func testLead(phone string, st domain.Stage) repository.Lead {
	next := time.Now().Add(-time.Hour)
	return repository.Lead{
		ID:            uuid.New(),
		FirstName:     "Maria",
		Phone:         phone,
		NurtureStatus: domain.StatusActive,
		NurtureStage:  st,
		NextNurtureAt: &next,
	}
}

func newTestSweeper(store *fakeSweepStore, sender *fakeSender) *Sweeper {
	policy := stage.NewPolicy(time.UTC, func() time.Duration { return 0 })
	return NewSweeper(store, sender, policy, stage.DefaultTemplates(), nil, logger.New("development"), SweeperOptions{
		Now: func() time.Time { return time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC) },
	})
}

func TestSweepAdvancesLead(t *testing.T) {
	lead := testLead("+13125550142", domain.StageDay3)
	store := &fakeSweepStore{due: []repository.Lead{lead}}
	sender := &fakeSender{}
	s := newTestSweeper(store, sender)

	report, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Selected != 1 || report.Sent != 1 || len(report.Errors) != 0 {
		t.Fatalf("report = %+v, want 1 selected, 1 sent", report)
	}
	if len(store.recorded) != 1 {
		t.Fatalf("recorded %d sends, want 1", len(store.recorded))
	}
	rec := store.recorded[0]
	if rec.LeadID != lead.ID {
		t.Error("send recorded for wrong lead")
	}
	if rec.Stage != domain.StageDay5 {
		t.Errorf("advanced stage = %s, want DAY_5", rec.Stage)
	}
	// DAY_3 advances +48h; noon send with zero jitter stays inside the
	// send window.
	want := time.Date(2024, 6, 5, 12, 0, 0, 0, time.UTC)
	if rec.NextNurtureAt == nil || !rec.NextNurtureAt.Equal(want) {
		t.Errorf("next nurture = %v, want %v", rec.NextNurtureAt, want)
	}
	if !strings.Contains(rec.Body, "Maria") {
		t.Errorf("rendered body missing name: %q", rec.Body)
	}
	if rec.ProviderMessageID == "" {
		t.Error("missing provider message id")
	}
}

func TestSweepTerminalStageEndsSequence(t *testing.T) {
	lead := testLead("+13125550142", domain.StageDay7)
	store := &fakeSweepStore{due: []repository.Lead{lead}}
	s := newTestSweeper(store, &fakeSender{})

	if _, err := s.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(store.recorded) != 1 {
		t.Fatalf("recorded %d sends, want 1", len(store.recorded))
	}
	rec := store.recorded[0]
	if rec.NextNurtureAt != nil {
		t.Errorf("terminal stage must clear next_nurture_at, got %v", rec.NextNurtureAt)
	}
	if rec.Stage != domain.StageDay7 {
		t.Errorf("terminal stage must stay DAY_7, got %s", rec.Stage)
	}
}

func TestSweepTransportFailureReleasesClaim(t *testing.T) {
	good := testLead("+13125550142", domain.StageDay1)
	bad := testLead("+13125550143", domain.StageDay1)
	store := &fakeSweepStore{due: []repository.Lead{bad, good}}
	sender := &fakeSender{fails: map[string]error{"+13125550143": errors.New("gateway 502")}}
	s := newTestSweeper(store, sender)

	report, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("per-lead failure must not abort the sweep: %v", err)
	}
	if report.Sent != 1 {
		t.Errorf("sent = %d, want 1", report.Sent)
	}
	if len(report.Errors) != 1 {
		t.Errorf("errors = %v, want one entry", report.Errors)
	}
	if len(store.released) != 1 || store.released[0] != bad.ID {
		t.Errorf("failed lead must have its claim released, got %v", store.released)
	}
	if len(store.recorded) != 1 || store.recorded[0].LeadID != good.ID {
		t.Error("only the successful lead may advance")
	}
}

func TestSweepBadPhoneDisablesNurture(t *testing.T) {
	lead := testLead("not a number", domain.StageDay1)
	store := &fakeSweepStore{due: []repository.Lead{lead}}
	sender := &fakeSender{}
	s := newTestSweeper(store, sender)

	report, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.Sent != 0 || len(report.Errors) != 1 {
		t.Fatalf("report = %+v, want 0 sent, 1 error", report)
	}
	if len(store.disabled) != 1 || store.disabled[0] != lead.ID {
		t.Errorf("bad phone must disable nurture, got %v", store.disabled)
	}
	if len(sender.sent) != 0 {
		t.Error("nothing may be dispatched for an unnormalizable phone")
	}
}

func TestSweepClaimFailureAborts(t *testing.T) {
	store := &fakeSweepStore{claimErr: errors.New("connection refused")}
	s := newTestSweeper(store, &fakeSender{})

	if _, err := s.RunOnce(context.Background()); err == nil {
		t.Fatal("due-list failure must abort the sweep attempt")
	}
}

func TestSweepEmptyBatch(t *testing.T) {
	store := &fakeSweepStore{}
	s := newTestSweeper(store, &fakeSender{})

	report, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.Selected != 0 || report.Sent != 0 {
		t.Errorf("report = %+v, want empty", report)
	}
}
