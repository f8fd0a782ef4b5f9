package realtime

import (
	"encoding/json"
	"time"
)

// Entity names carried in change events.
const (
	EntityProject        = "project"
	EntityTask           = "task"
	EntityTaskAssignment = "task_assignment"
	EntityComment        = "comment"
)

// Actions carried in explicit action events.
const (
	ActionTaskMoved    = "task_moved"
	ActionTaskAssigned = "task_assigned"
)

// Event is the generic entity-changed message published on every qualifying
// create/update, scoped to the owning project's channel. Prepend tells clients
// to insert the entity at the head of their lists (newest first).
type Event struct {
	Type      string          `json:"type"`
	Entity    string          `json:"entity"`
	EntityID  int64           `json:"entity_id"`
	ProjectID int64           `json:"project_id"`
	Data      json.RawMessage `json:"data,omitempty"`
	Prepend   bool            `json:"prepend"`
	Timestamp time.Time       `json:"timestamp"`
}

// ActionEvent is the explicit broadcast emitted by the two socket commands.
// It is additive to the generic Event fired by the same mutation; clients
// listening to both deduplicate by task id + timestamp.
type ActionEvent struct {
	Action    string    `json:"action"`
	TaskID    int64     `json:"task_id"`
	Status    string    `json:"status,omitempty"`
	UserID    int64     `json:"user_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent builds an entity-changed event, serializing the entity into Data.
func NewEvent(entity string, entityID, projectID int64, data any) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, err
	}

	return Event{
		Type:      "entity_changed",
		Entity:    entity,
		EntityID:  entityID,
		ProjectID: projectID,
		Data:      raw,
		Prepend:   true,
		Timestamp: time.Now().UTC(),
	}, nil
}

// Publisher is what mutation code talks to. The hub implements it; tests
// substitute a recorder.
type Publisher interface {
	Publish(projectID int64, message any)
}

// NopPublisher drops everything. Used as the default until a hub is wired in.
type NopPublisher struct{}

func (NopPublisher) Publish(int64, any) {}
