// Package realtime implements the project-scoped fan-out hub. Every mutation
// of a project, task, assignment or comment publishes one message to the
// owning project's channel; every subscriber currently attached to that
// channel receives it. Delivery is best-effort and at-most-once: nothing is
// persisted, a disconnected client misses the message and re-fetches state on
// reconnect.
package realtime

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"projecthub/internal/logging"
)

// subscriberBuffer is the per-subscriber send queue depth. A subscriber whose
// queue is full at publish time is skipped for that message.
const subscriberBuffer = 16

// Subscriber is one attached client on one project channel. Messages arrive
// pre-serialized on Send; the channel is closed on Unsubscribe.
type Subscriber struct {
	ID        string
	ProjectID int64
	Send      chan []byte
}

// Hub tracks subscribers per project and fans published messages out to them.
type Hub struct {
	mu       sync.RWMutex
	channels map[int64]map[string]*Subscriber
}

func NewHub() *Hub {
	return &Hub{
		channels: make(map[int64]map[string]*Subscriber),
	}
}

// Subscribe attaches a new subscriber to the project's channel.
func (h *Hub) Subscribe(projectID int64) *Subscriber {
	sub := &Subscriber{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Send:      make(chan []byte, subscriberBuffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.channels[projectID] == nil {
		h.channels[projectID] = make(map[string]*Subscriber)
	}
	h.channels[projectID][sub.ID] = sub

	logging.Logger.Debugf("subscriber %s attached to project %d (%d total)",
		sub.ID, projectID, len(h.channels[projectID]))

	return sub
}

// Unsubscribe detaches the subscriber and closes its send channel. Safe to
// call more than once. In-flight messages already queued are lost with it.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.channels[sub.ProjectID]
	if !ok {
		return
	}
	if _, ok := subs[sub.ID]; !ok {
		return
	}

	delete(subs, sub.ID)
	close(sub.Send)
	if len(subs) == 0 {
		delete(h.channels, sub.ProjectID)
	}

	logging.Logger.Debugf("subscriber %s detached from project %d", sub.ID, sub.ProjectID)
}

// Publish serializes message and hands it to every subscriber of the project.
// Sends never block: a subscriber with a full queue is skipped, and the error
// is only logged. Publish failure must never fail the mutation that
// triggered it.
func (h *Hub) Publish(projectID int64, message any) {
	raw, err := json.Marshal(message)
	if err != nil {
		logging.Logger.Errorf("failed to marshal broadcast for project %d: %v", projectID, err)

		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.channels[projectID] {
		select {
		case sub.Send <- raw:
		default:
			logging.Logger.Warnf("dropping message for slow subscriber %s on project %d", sub.ID, projectID)
		}
	}
}

// Count reports the number of subscribers attached to the project's channel.
func (h *Hub) Count(projectID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.channels[projectID])
}
