package tracker

import (
	"testing"

	"projecthub/internal/realtime"
)

type recordingPublisher struct {
	projectIDs []int64
	messages   []any
}

func (r *recordingPublisher) Publish(projectID int64, message any) {
	r.projectIDs = append(r.projectIDs, projectID)
	r.messages = append(r.messages, message)
}

func TestPublishEntity(t *testing.T) {
	rec := &recordingPublisher{}
	SetPublisher(rec)
	defer SetPublisher(nil)

	publishEntity(realtime.EntityTask, 11, 3, Task{TaskID: 11, Title: "triage"})

	if len(rec.messages) != 1 {
		t.Fatalf("published %d messages, want 1", len(rec.messages))
	}
	if rec.projectIDs[0] != 3 {
		t.Errorf("published to project %d, want 3", rec.projectIDs[0])
	}

	ev, ok := rec.messages[0].(realtime.Event)
	if !ok {
		t.Fatalf("message type %T, want realtime.Event", rec.messages[0])
	}
	if ev.Entity != realtime.EntityTask || ev.EntityID != 11 || ev.ProjectID != 3 {
		t.Errorf("event identity = %s/%d/%d", ev.Entity, ev.EntityID, ev.ProjectID)
	}
}

func TestPublishEntityBadPayloadDropped(t *testing.T) {
	rec := &recordingPublisher{}
	SetPublisher(rec)
	defer SetPublisher(nil)

	publishEntity(realtime.EntityComment, 1, 1, make(chan int))

	if len(rec.messages) != 0 {
		t.Errorf("unmarshalable payload published %d messages", len(rec.messages))
	}
}

func TestSetPublisherNilResetsToNop(t *testing.T) {
	SetPublisher(nil)
	// must not panic
	publishEntity(realtime.EntityProject, 1, 1, Project{ProjectID: 1})
}
