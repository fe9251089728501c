package usersink_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-transient/pkg/activity"
	"github.com/goliatone/go-transient/pkg/activity/usersink"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

type recordingSink struct {
	records []usertypes.ActivityRecord
	err     error
}

func (s *recordingSink) Log(_ context.Context, record usertypes.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestHookNotifyMapsDocumentEvent(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	actorID := uuid.New()
	tenantID := uuid.New()
	documentID := uuid.NewString()

	event := activity.BuildDocumentUpdatedEvent(activity.DocumentEventInput{
		ActorID:        actorID.String(),
		UserID:         "not-a-uuid",
		TenantID:       tenantID.String(),
		Collection:     "users",
		DocumentID:     documentID,
		Version:        3,
		Changed:        []string{"role"},
		DefinitionCode: "users:update",
		Recipients:     []string{"ops@example.com"},
		OccurredAt:     now,
	})

	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.ActorID != actorID || record.TenantID != tenantID {
		t.Fatalf("unexpected ids: %+v", record)
	}
	if record.UserID != uuid.Nil {
		t.Fatalf("expected invalid uuid to map to Nil, got %s", record.UserID)
	}
	if record.Verb != activity.VerbDocumentUpdated || record.ObjectType != "users" || record.ObjectID != documentID {
		t.Fatalf("unexpected record payload: %+v", record)
	}
	if record.Channel != activity.DefaultChannel {
		t.Fatalf("expected default channel, got %q", record.Channel)
	}
	if !record.OccurredAt.Equal(now) {
		t.Fatalf("expected occurred_at %v got %v", now, record.OccurredAt)
	}
	if record.Data["definition_code"] != "users:update" || record.Data["version"] != 3 {
		t.Fatalf("unexpected data %+v", record.Data)
	}
	recipients, ok := record.Data["recipients"].([]string)
	if !ok || len(recipients) != 1 || recipients[0] != "ops@example.com" {
		t.Fatalf("expected recipients metadata got %v", record.Data["recipients"])
	}
}

func TestHookNotifySkipsInvalidEvents(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	_ = hook.Notify(context.Background(), activity.Event{})
	_ = usersink.Hook{}.Notify(context.Background(), activity.Event{Verb: "x", ObjectType: "y", ObjectID: "z"})

	if len(sink.records) != 0 {
		t.Fatalf("expected no records, got %d", len(sink.records))
	}
}

func TestHookNotifyPropagatesSinkError(t *testing.T) {
	boom := errors.New("sink down")
	hook := usersink.Hook{Sink: &recordingSink{err: boom}}
	err := hook.Notify(context.Background(), activity.BuildDocumentDeletedEvent(activity.DocumentEventInput{
		Collection: "users",
		DocumentID: "1",
	}))
	if !errors.Is(err, boom) {
		t.Fatalf("expected sink error, got %v", err)
	}
}

func TestHookWorksThroughEmitter(t *testing.T) {
	sink := &recordingSink{}
	emitter := activity.NewEmitter(activity.Hooks{usersink.Hook{Sink: sink}}, activity.Config{Enabled: true, Channel: "audit"})
	err := emitter.Emit(context.Background(), activity.BuildDocumentCreatedEvent(activity.DocumentEventInput{
		Collection: "users",
		DocumentID: "1",
	}))
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if len(sink.records) != 1 || sink.records[0].Channel != "audit" {
		t.Fatalf("unexpected records %+v", sink.records)
	}
	if sink.records[0].OccurredAt.IsZero() {
		t.Fatalf("expected occurred_at to be defaulted")
	}
}
