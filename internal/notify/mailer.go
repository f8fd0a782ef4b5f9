// Package notify dispatches task notification and digest mail through an
// external relay. Everything here is fire-and-forget: failures are logged and
// never propagate into the request that triggered them.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"projecthub/internal/logging"
)

// Message is one outbound mail handed to the relay.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Mailer posts messages to the relay's /send endpoint. A circuit breaker
// guards the downstream so a dead relay does not pile up goroutines waiting
// on timeouts.
type Mailer struct {
	base    string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

func NewMailer(base string) *Mailer {
	return &Mailer{
		base:   base,
		client: &http.Client{Timeout: 10 * time.Second},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "mail-relay",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logging.Logger.Warnf("breaker %s: %s -> %s", name, from, to)
			},
		}),
	}
}

// Configured reports whether a relay address was provided at all.
func (m *Mailer) Configured() bool {
	return m.base != ""
}

func (m *Mailer) Send(ctx context.Context, msg Message) error {
	if !m.Configured() {
		return nil
	}

	_, err := m.breaker.Execute(func() (any, error) {
		return nil, m.post(ctx, msg)
	})
	return err
}

func (m *Mailer) post(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.base+"/send", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("mail relay POST /send -> %d: %s", resp.StatusCode, string(b))
	}

	return nil
}
