package realtime

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNewEvent(t *testing.T) {
	ev, err := NewEvent(EntityTask, 42, 7, map[string]string{"title": "ship it"})
	if err != nil {
		t.Fatalf("NewEvent: %v", err)
	}

	if ev.Type != "entity_changed" {
		t.Errorf("Type = %q", ev.Type)
	}
	if ev.Entity != EntityTask || ev.EntityID != 42 || ev.ProjectID != 7 {
		t.Errorf("identity fields = %s/%d/%d", ev.Entity, ev.EntityID, ev.ProjectID)
	}
	if !ev.Prepend {
		t.Error("events should ask clients to prepend")
	}
	if ev.Timestamp.IsZero() {
		t.Error("timestamp not set")
	}

	var data map[string]string
	if err := json.Unmarshal(ev.Data, &data); err != nil {
		t.Fatalf("bad Data payload: %v", err)
	}
	if data["title"] != "ship it" {
		t.Errorf("Data = %v", data)
	}
}

func TestNewEventRejectsUnmarshalable(t *testing.T) {
	if _, err := NewEvent(EntityComment, 1, 1, make(chan int)); err == nil {
		t.Error("expected marshal error")
	}
}

func TestActionEventWireShape(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("move carries status, omits user", func(t *testing.T) {
		raw, err := json.Marshal(ActionEvent{
			Action:    ActionTaskMoved,
			TaskID:    5,
			Status:    "done",
			Timestamp: ts,
		})
		if err != nil {
			t.Fatal(err)
		}
		var m map[string]any
		if err := json.Unmarshal(raw, &m); err != nil {
			t.Fatal(err)
		}
		if m["action"] != "task_moved" || m["status"] != "done" {
			t.Errorf("frame = %v", m)
		}
		if _, present := m["user_id"]; present {
			t.Error("user_id should be omitted on moves")
		}
	})

	t.Run("assign carries user, omits status", func(t *testing.T) {
		raw, err := json.Marshal(ActionEvent{
			Action:    ActionTaskAssigned,
			TaskID:    5,
			UserID:    9,
			Timestamp: ts,
		})
		if err != nil {
			t.Fatal(err)
		}
		var m map[string]any
		if err := json.Unmarshal(raw, &m); err != nil {
			t.Fatal(err)
		}
		if m["action"] != "task_assigned" || m["user_id"] != float64(9) {
			t.Errorf("frame = %v", m)
		}
		if _, present := m["status"]; present {
			t.Error("status should be omitted on assigns")
		}
	})
}
