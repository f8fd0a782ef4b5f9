package realtime

import (
	"encoding/json"
	"testing"
)

func recvOne(t *testing.T, sub *Subscriber) []byte {
	t.Helper()
	select {
	case msg, ok := <-sub.Send:
		if !ok {
			t.Fatal("send channel closed unexpectedly")
		}
		return msg
	default:
		t.Fatal("expected a queued message")
	}
	return nil
}

func TestHubPublishScopedToProject(t *testing.T) {
	h := NewHub()
	a := h.Subscribe(1)
	b := h.Subscribe(1)
	other := h.Subscribe(2)

	h.Publish(1, map[string]string{"hello": "world"})

	for _, sub := range []*Subscriber{a, b} {
		raw := recvOne(t, sub)
		var got map[string]string
		if err := json.Unmarshal(raw, &got); err != nil {
			t.Fatalf("bad payload: %v", err)
		}
		if got["hello"] != "world" {
			t.Errorf("payload = %v", got)
		}
	}

	select {
	case msg := <-other.Send:
		t.Errorf("subscriber on project 2 received %s", msg)
	default:
	}
}

func TestHubUnsubscribe(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe(7)

	if got := h.Count(7); got != 1 {
		t.Fatalf("Count = %d, want 1", got)
	}

	h.Unsubscribe(sub)

	if got := h.Count(7); got != 0 {
		t.Errorf("Count after unsubscribe = %d, want 0", got)
	}
	if _, ok := <-sub.Send; ok {
		t.Error("send channel should be closed")
	}

	// repeated detach must not panic on the closed channel
	h.Unsubscribe(sub)

	// publishing to an empty channel is a no-op
	h.Publish(7, "ignored")
}

func TestHubSlowSubscriberDropped(t *testing.T) {
	h := NewHub()
	slow := h.Subscribe(3)
	fast := h.Subscribe(3)

	// overflow the slow subscriber's queue; Publish must not block
	for i := 0; i < subscriberBuffer+5; i++ {
		h.Publish(3, i)
		// keep fast drained so only slow backs up
		<-fast.Send
	}

	if got := len(slow.Send); got != subscriberBuffer {
		t.Errorf("slow queue depth = %d, want %d", got, subscriberBuffer)
	}

	// both stay attached; dropping a message is not a detach
	if got := h.Count(3); got != 2 {
		t.Errorf("Count = %d, want 2", got)
	}
}

func TestHubUnmarshalableMessageDropped(t *testing.T) {
	h := NewHub()
	sub := h.Subscribe(4)

	h.Publish(4, make(chan int))

	select {
	case msg := <-sub.Send:
		t.Errorf("unexpected message %s", msg)
	default:
	}
}
