package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"nurture_backend/internal/nurture/domain"
	"nurture_backend/internal/nurture/repository"
	"nurture_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeSnoozeStore struct {
	expired  []repository.Lead
	listErr  error
	released [][]uuid.UUID
}

func (f *fakeSnoozeStore) ListExpiredSnoozes(ctx context.Context, now time.Time, limit int) ([]repository.Lead, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if limit > len(f.expired) {
		limit = len(f.expired)
	}
	return f.expired[:limit], nil
}

func (f *fakeSnoozeStore) ReleaseSnoozes(ctx context.Context, leadIDs []uuid.UUID, now time.Time) (int64, error) {
	f.released = append(f.released, leadIDs)
	return int64(len(leadIDs)), nil
}

func snoozedLead(lockedUntil time.Time) repository.Lead {
	return repository.Lead{
		ID:               uuid.New(),
		FirstName:        "Maria",
		NurtureStatus:    domain.StatusSnoozed,
		NurtureStage:     domain.StageDay3,
		NurtureLockedTil: &lockedUntil,
	}
}

func TestExpirerDryRunListsOnly(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	store := &fakeSnoozeStore{expired: []repository.Lead{snoozedLead(past), snoozedLead(past)}}
	e := NewExpirer(store, logger.New("development"), 100, nil)

	report, err := e.RunOnce(context.Background(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.DryRun {
		t.Error("report must be marked dry-run")
	}
	if len(report.Matched) != 2 {
		t.Errorf("matched = %d, want 2", len(report.Matched))
	}
	if report.Released != 0 || len(store.released) != 0 {
		t.Error("dry-run must not mutate anything")
	}
}

func TestExpirerApplyReleasesBatch(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	leads := []repository.Lead{snoozedLead(past), snoozedLead(past), snoozedLead(past)}
	store := &fakeSnoozeStore{expired: leads}
	e := NewExpirer(store, logger.New("development"), 100, nil)

	report, err := e.RunOnce(context.Background(), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Released != 3 {
		t.Errorf("released = %d, want 3", report.Released)
	}
	if len(store.released) != 1 {
		t.Fatalf("release must be a single batch update, got %d calls", len(store.released))
	}
	if len(store.released[0]) != 3 {
		t.Errorf("batch had %d ids, want 3", len(store.released[0]))
	}
}

func TestExpirerEmptyBatchSkipsUpdate(t *testing.T) {
	store := &fakeSnoozeStore{}
	e := NewExpirer(store, logger.New("development"), 100, nil)

	report, err := e.RunOnce(context.Background(), true)
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Matched) != 0 || report.Released != 0 {
		t.Errorf("report = %+v, want empty", report)
	}
	if len(store.released) != 0 {
		t.Error("no update may run for an empty batch")
	}
}

func TestExpirerListFailure(t *testing.T) {
	store := &fakeSnoozeStore{listErr: errors.New("connection refused")}
	e := NewExpirer(store, logger.New("development"), 100, nil)

	if _, err := e.RunOnce(context.Background(), true); err == nil {
		t.Fatal("list failure must surface")
	}
}

func TestExpirerRespectsBatchSize(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	var leads []repository.Lead
	for i := 0; i < 5; i++ {
		leads = append(leads, snoozedLead(past))
	}
	store := &fakeSnoozeStore{expired: leads}
	e := NewExpirer(store, logger.New("development"), 2, nil)

	report, err := e.RunOnce(context.Background(), true)
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Matched) != 2 || report.Released != 2 {
		t.Errorf("report = %+v, want batch of 2", report)
	}
}
