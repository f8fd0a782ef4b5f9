package tracker

import (
	"projecthub/internal/logging"
	"projecthub/internal/realtime"
)

// bus receives every qualifying mutation. Defaults to a no-op so the store
// functions stay runnable without a hub; InitAndServe wires the real one in.
var bus realtime.Publisher = realtime.NopPublisher{}

// SetPublisher swaps the fan-out target. Tests install a recorder here.
func SetPublisher(p realtime.Publisher) {
	if p == nil {
		bus = realtime.NopPublisher{}
		return
	}
	bus = p
}

// publishEntity emits the generic entity-changed event to the owning
// project's channel. It runs only after a mutation has already succeeded and
// never reports failure back to the caller: the write is the source of truth,
// fan-out is notification.
func publishEntity(entity string, entityID, projectID int64, data any) {
	ev, err := realtime.NewEvent(entity, entityID, projectID, data)
	if err != nil {
		logging.Logger.Errorf("failed to build %s event for project %d: %v", entity, projectID, err)

		return
	}
	bus.Publish(projectID, ev)
}
