package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type relayRecorder struct {
	mu       sync.Mutex
	received []Message
}

func (r *relayRecorder) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var msg Message
		if err := json.NewDecoder(req.Body).Decode(&msg); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		r.mu.Lock()
		r.received = append(r.received, msg)
		r.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}
}

func (r *relayRecorder) messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.received...)
}

func TestSendDigests(t *testing.T) {
	rec := &relayRecorder{}
	srv := httptest.NewServer(rec.handler())
	defer srv.Close()

	digests := func(ctx context.Context, since time.Time) ([]Digest, error) {
		return []Digest{
			{Email: "alice@example.com", Name: "Alice", Titles: []string{"fix login", "ship board"}},
			{Email: "bob@example.com", Name: "Bob", Titles: nil},
		}, nil
	}

	n := NewNotifier(NewMailer(srv.URL), nil, digests)
	n.sendDigests(context.Background(), 24*time.Hour)

	got := rec.messages()
	if len(got) != 1 {
		t.Fatalf("relay received %d messages, want 1 (empty digests skipped)", len(got))
	}
	if got[0].To != "alice@example.com" {
		t.Errorf("To = %s", got[0].To)
	}
}

func TestTaskChangedMailsAssignees(t *testing.T) {
	rec := &relayRecorder{}
	srv := httptest.NewServer(rec.handler())
	defer srv.Close()

	assignees := func(ctx context.Context, taskID int64) ([]string, error) {
		return []string{"alice@example.com", "bob@example.com"}, nil
	}

	n := NewNotifier(NewMailer(srv.URL), assignees, nil)
	n.TaskChanged(1, "fix login", "updated")

	deadline := time.After(2 * time.Second)
	for {
		if len(rec.messages()) == 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("relay received %d messages, want 2", len(rec.messages()))
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestNilNotifierIsSafe(t *testing.T) {
	var n *Notifier
	n.TaskChanged(1, "anything", "created")
	n.RunDigestLoop(context.Background(), time.Hour)
}

func TestUnconfiguredNotifierDoesNotDispatch(t *testing.T) {
	called := false
	assignees := func(ctx context.Context, taskID int64) ([]string, error) {
		called = true
		return nil, nil
	}

	n := NewNotifier(NewMailer(""), assignees, nil)
	n.TaskChanged(1, "anything", "created")

	time.Sleep(50 * time.Millisecond)
	if called {
		t.Error("assignee source consulted without a configured relay")
	}
}
