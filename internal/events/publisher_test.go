package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/Leganyst/salon-booking/internal/events"
	"github.com/Leganyst/salon-booking/internal/model"
)

func TestFromModel(t *testing.T) {
	entity, staff, actor := uuid.New(), uuid.New(), uuid.New()
	created := time.Date(2025, 1, 6, 10, 0, 0, 0, time.FixedZone("SGT", 8*3600))

	msg := events.FromModel(&model.Event{
		ID:        uuid.New(),
		EventType: model.EventTypeCreditsAdjusted,
		CreatedAt: created,
		EntityID:  &entity,
		StaffID:   &staff,
		ActorID:   &actor,
		Details:   datatypes.JSON(`{"delta":-8}`),
	})

	if msg.EntityID != entity.String() || msg.StaffID != staff.String() || msg.ActorID != actor.String() {
		t.Fatalf("expected entity, staff and actor ids, got %+v", msg)
	}
	if msg.OccurredAt.Location() != time.UTC || !msg.OccurredAt.Equal(created) {
		t.Fatalf("expected UTC time of the same instant, got %v", msg.OccurredAt)
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	details, ok := decoded["details"].(map[string]any)
	if !ok || details["delta"] != float64(-8) {
		t.Fatalf("expected details to stay embedded JSON, got %v", decoded["details"])
	}
}

func TestFromModel_OmitsEmptyRefs(t *testing.T) {
	msg := events.FromModel(&model.Event{ID: uuid.New(), EventType: model.EventTypeShiftDeleted})

	raw, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"entityId", "staffId", "actorId", "details"} {
		if _, ok := decoded[key]; ok {
			t.Fatalf("expected %s to be omitted, got %s", key, raw)
		}
	}
}

func TestRecorder_KeepsOrder(t *testing.T) {
	rec := &events.Recorder{}
	ctx := context.Background()

	for _, typ := range []model.EventType{model.EventTypeAppointmentCreated, model.EventTypeCreditsAdjusted} {
		if err := rec.Publish(ctx, events.Message{Type: typ}); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}

	got := rec.Messages()
	if len(got) != 2 || got[0].Type != model.EventTypeAppointmentCreated || got[1].Type != model.EventTypeCreditsAdjusted {
		t.Fatalf("expected created then credits, got %+v", got)
	}

	got[0].Type = "mutated"
	if rec.Messages()[0].Type != model.EventTypeAppointmentCreated {
		t.Fatalf("expected Messages to return a copy")
	}
}
