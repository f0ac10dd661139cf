package webhook

import (
	"context"
	"errors"
	"testing"

	"nurture_backend/internal/nurture/domain"
	"nurture_backend/internal/nurture/intent"
	"nurture_backend/internal/nurture/repository"
	"nurture_backend/internal/nurture/routing"
	"nurture_backend/platform/apperr"
	"nurture_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type fakeLeadStore struct {
	leads     map[string]repository.Lead
	decisions []routing.Decision
	applyErr  error
}

func (f *fakeLeadStore) GetByPhone(ctx context.Context, phone string) (repository.Lead, error) {
	if l, ok := f.leads[phone]; ok {
		return l, nil
	}
	return repository.Lead{}, apperr.NotFound("lead not found")
}

func (f *fakeLeadStore) ApplyDecision(ctx context.Context, leadID uuid.UUID, d routing.Decision) error {
	if f.applyErr != nil {
		return f.applyErr
	}
	f.decisions = append(f.decisions, d)
	return nil
}

type fakeMessageStore struct {
	inserted []repository.InsertMessageParams
}

func (f *fakeMessageStore) InsertMessage(ctx context.Context, p repository.InsertMessageParams) (uuid.UUID, error) {
	f.inserted = append(f.inserted, p)
	return uuid.New(), nil
}

func (f *fakeMessageStore) ListByLead(ctx context.Context, leadID uuid.UUID, limit int) ([]repository.Message, error) {
	return nil, nil
}

type fakeTaskStore struct {
	tasks     []routing.TaskDraft
	insertErr error
}

func (f *fakeTaskStore) InsertTask(ctx context.Context, draft routing.TaskDraft) (uuid.UUID, error) {
	if f.insertErr != nil {
		return uuid.Nil, f.insertErr
	}
	f.tasks = append(f.tasks, draft)
	return uuid.New(), nil
}

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func activeLead(phone string) repository.Lead {
	return repository.Lead{
		ID:            uuid.New(),
		FirstName:     "Maria",
		Phone:         phone,
		NurtureStatus: domain.StatusActive,
		NurtureStage:  domain.StageDay3,
	}
}

func newTestService(leads *fakeLeadStore, msgs *fakeMessageStore, tasks *fakeTaskStore, rdb *redis.Client) *Service {
	return NewService(
		leads, msgs, tasks,
		intent.NewClassifier(intent.DefaultVocabulary()),
		routing.NewRouter(nil),
		rdb, nil, logger.New("development"), "US",
	)
}

func TestInboundStopStopsLead(t *testing.T) {
	lead := activeLead("+13125550142")
	leads := &fakeLeadStore{leads: map[string]repository.Lead{"+13125550142": lead}}
	msgs := &fakeMessageStore{}
	tasks := &fakeTaskStore{}
	s := newTestService(leads, msgs, tasks, testRedis(t))

	result, err := s.ProcessInboundSMS(context.Background(), InboundSMS{
		FromPhone:         "(312) 555-0142",
		Text:              "STOP",
		ProviderMessageID: "msg-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Intent != "STOP" || result.NewStatus != "STOPPED" {
		t.Errorf("result = %+v, want STOP/STOPPED", result)
	}
	if len(leads.decisions) != 1 || leads.decisions[0].Status != domain.StatusStopped {
		t.Fatalf("decisions = %+v, want one STOPPED write", leads.decisions)
	}
	if leads.decisions[0].NextNurtureAt != nil {
		t.Error("STOP must clear next_nurture_at")
	}
	if len(tasks.tasks) != 0 {
		t.Error("STOP must not create a task")
	}
	if len(msgs.inserted) != 1 || msgs.inserted[0].Direction != "INBOUND" {
		t.Fatalf("messages = %+v, want one INBOUND row", msgs.inserted)
	}
	if msgs.inserted[0].LeadID == nil || *msgs.inserted[0].LeadID != lead.ID {
		t.Error("message must attach to the matched lead")
	}
}

func TestInboundPositiveCreatesTask(t *testing.T) {
	lead := activeLead("+13125550142")
	leads := &fakeLeadStore{leads: map[string]repository.Lead{"+13125550142": lead}}
	tasks := &fakeTaskStore{}
	s := newTestService(leads, &fakeMessageStore{}, tasks, testRedis(t))

	result, err := s.ProcessInboundSMS(context.Background(), InboundSMS{
		FromPhone:         "+13125550142",
		Text:              "yes, can we meet tomorrow?",
		ProviderMessageID: "msg-2",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.NewStatus != "ENGAGED" {
		t.Errorf("status = %q, want ENGAGED", result.NewStatus)
	}
	if result.TaskID == nil || len(tasks.tasks) != 1 {
		t.Fatal("POSITIVE must create a follow-up task")
	}
	if tasks.tasks[0].LeadID != lead.ID {
		t.Error("task attached to wrong lead")
	}
}

func TestInboundUnmatchedSenderLogsUnattached(t *testing.T) {
	leads := &fakeLeadStore{leads: map[string]repository.Lead{}}
	msgs := &fakeMessageStore{}
	s := newTestService(leads, msgs, &fakeTaskStore{}, testRedis(t))

	result, err := s.ProcessInboundSMS(context.Background(), InboundSMS{
		FromPhone:         "+19995550000",
		Text:              "yes please",
		ProviderMessageID: "msg-3",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.LeadID != nil || result.NewStatus != "" {
		t.Errorf("result = %+v, want unattached, no transition", result)
	}
	if len(msgs.inserted) != 1 || msgs.inserted[0].LeadID != nil {
		t.Fatalf("messages = %+v, want one unattached row", msgs.inserted)
	}
	if len(leads.decisions) != 0 {
		t.Error("router must not run without a matched lead")
	}
}

func TestInboundDuplicateDelivery(t *testing.T) {
	lead := activeLead("+13125550142")
	leads := &fakeLeadStore{leads: map[string]repository.Lead{"+13125550142": lead}}
	msgs := &fakeMessageStore{}
	s := newTestService(leads, msgs, &fakeTaskStore{}, testRedis(t))

	in := InboundSMS{FromPhone: "+13125550142", Text: "STOP", ProviderMessageID: "msg-dup"}
	if _, err := s.ProcessInboundSMS(context.Background(), in); err != nil {
		t.Fatal(err)
	}
	result, err := s.ProcessInboundSMS(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Duplicate {
		t.Error("second delivery must be flagged duplicate")
	}
	if len(msgs.inserted) != 1 {
		t.Errorf("messages = %d, want the retry dropped", len(msgs.inserted))
	}
}

func TestInboundStoreErrorReleasesDedupClaim(t *testing.T) {
	lead := activeLead("+13125550142")
	leads := &fakeLeadStore{
		leads:    map[string]repository.Lead{"+13125550142": lead},
		applyErr: errors.New("connection reset"),
	}
	msgs := &fakeMessageStore{}
	s := newTestService(leads, msgs, &fakeTaskStore{}, testRedis(t))

	in := InboundSMS{FromPhone: "+13125550142", Text: "STOP", ProviderMessageID: "msg-retry"}
	if _, err := s.ProcessInboundSMS(context.Background(), in); err == nil {
		t.Fatal("expected the first delivery to fail on the store error")
	}

	// The provider retries the failed delivery after the store recovers.
	// The dedup claim from the failed attempt must not swallow it.
	leads.applyErr = nil
	result, err := s.ProcessInboundSMS(context.Background(), in)
	if err != nil {
		t.Fatalf("retry after store recovery: %v", err)
	}
	if result.Duplicate {
		t.Fatal("retry of a failed delivery must not be dropped as duplicate")
	}
	if result.NewStatus != "STOPPED" {
		t.Errorf("status = %q, want STOPPED applied on retry", result.NewStatus)
	}
	if len(leads.decisions) != 1 || leads.decisions[0].Status != domain.StatusStopped {
		t.Fatalf("decisions = %+v, want the STOPPED write from the retry", leads.decisions)
	}
}

func TestInboundDedupFailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mr.Close()

	lead := activeLead("+13125550142")
	leads := &fakeLeadStore{leads: map[string]repository.Lead{"+13125550142": lead}}
	s := newTestService(leads, &fakeMessageStore{}, &fakeTaskStore{}, rdb)

	result, err := s.ProcessInboundSMS(context.Background(), InboundSMS{
		FromPhone:         "+13125550142",
		Text:              "STOP",
		ProviderMessageID: "msg-4",
	})
	if err != nil {
		t.Fatalf("redis outage must not block processing: %v", err)
	}
	if result.NewStatus != "STOPPED" {
		t.Errorf("status = %q, want STOPPED despite dedup outage", result.NewStatus)
	}
}

func TestInboundTaskFailureKeepsStatus(t *testing.T) {
	lead := activeLead("+13125550142")
	leads := &fakeLeadStore{leads: map[string]repository.Lead{"+13125550142": lead}}
	tasks := &fakeTaskStore{insertErr: errors.New("tasks table locked")}
	s := newTestService(leads, &fakeMessageStore{}, tasks, testRedis(t))

	result, err := s.ProcessInboundSMS(context.Background(), InboundSMS{
		FromPhone:         "+13125550142",
		Text:              "yes let's meet tomorrow",
		ProviderMessageID: "msg-5",
	})
	if err != nil {
		t.Fatalf("task failure must not fail the delivery: %v", err)
	}
	if result.NewStatus != "ENGAGED" {
		t.Errorf("status = %q, want ENGAGED to stick", result.NewStatus)
	}
	if result.TaskID != nil {
		t.Error("no task id may be reported for a failed insert")
	}
}

func TestInboundUnknownLeavesLeadAlone(t *testing.T) {
	lead := activeLead("+13125550142")
	leads := &fakeLeadStore{leads: map[string]repository.Lead{"+13125550142": lead}}
	s := newTestService(leads, &fakeMessageStore{}, &fakeTaskStore{}, testRedis(t))

	result, err := s.ProcessInboundSMS(context.Background(), InboundSMS{
		FromPhone:         "+13125550142",
		Text:              "who is this",
		ProviderMessageID: "msg-6",
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Intent != "UNKNOWN" || result.NewStatus != "" {
		t.Errorf("result = %+v, want UNKNOWN with no transition", result)
	}
	if len(leads.decisions) != 0 {
		t.Error("UNKNOWN must not write state")
	}
}
