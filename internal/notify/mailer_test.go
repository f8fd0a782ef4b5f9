package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMailerUnconfiguredIsNoop(t *testing.T) {
	m := NewMailer("")
	if m.Configured() {
		t.Error("empty relay address should not count as configured")
	}
	if err := m.Send(context.Background(), Message{To: "a@b.c"}); err != nil {
		t.Errorf("unconfigured Send = %v, want nil", err)
	}
}

func TestMailerSend(t *testing.T) {
	var got Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/send" {
			t.Errorf("posted to %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("bad body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	m := NewMailer(srv.URL)
	msg := Message{To: "dev@example.com", Subject: "Task created: triage", Body: "hi"}
	if err := m.Send(context.Background(), msg); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got != msg {
		t.Errorf("relay received %+v, want %+v", got, msg)
	}
}

func TestMailerSendNon2xxFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "relay down", http.StatusBadGateway)
	}))
	defer srv.Close()

	m := NewMailer(srv.URL)
	if err := m.Send(context.Background(), Message{To: "a@b.c"}); err == nil {
		t.Error("expected error on 502")
	}
}

func TestMailerBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.Error(w, "relay down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	m := NewMailer(srv.URL)
	for i := 0; i < 10; i++ {
		_ = m.Send(context.Background(), Message{To: "a@b.c"})
	}

	// the breaker trips at 5 consecutive failures and stops hitting the relay
	if hits > 5 {
		t.Errorf("relay hit %d times, breaker should have opened at 5", hits)
	}
}
