package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"projecthub/internal/logging"
)

// Digest is one user's bundle of recently touched assignments.
type Digest struct {
	Email  string
	Name   string
	Titles []string
}

// AssigneeSource resolves the notification recipients for a task.
type AssigneeSource func(ctx context.Context, taskID int64) ([]string, error)

// DigestSource collects per-user digests of tasks touched since the cutoff.
type DigestSource func(ctx context.Context, since time.Time) ([]Digest, error)

// Notifier fans task events out to assignees by mail. Dispatch is
// asynchronous and independent of the realtime publish; nothing here blocks
// or fails the triggering mutation.
type Notifier struct {
	mailer    *Mailer
	assignees AssigneeSource
	digests   DigestSource
}

func NewNotifier(mailer *Mailer, assignees AssigneeSource, digests DigestSource) *Notifier {
	return &Notifier{
		mailer:    mailer,
		assignees: assignees,
		digests:   digests,
	}
}

// TaskChanged mails every active assignee of the task. Single pass, no
// retries beyond what the breaker allows.
func (n *Notifier) TaskChanged(taskID int64, title, action string) {
	if n == nil || !n.mailer.Configured() {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		emails, err := n.assignees(ctx, taskID)
		if err != nil {
			logging.Logger.Errorf("failed to resolve assignees for task %d: %v", taskID, err)

			return
		}

		for _, email := range emails {
			err := n.mailer.Send(ctx, Message{
				To:      email,
				Subject: fmt.Sprintf("Task %s: %s", action, title),
				Body:    fmt.Sprintf("The task %q was %s.", title, action),
			})
			if err != nil {
				logging.Logger.Errorf("failed to notify %s about task %d: %v", email, taskID, err)
			}
		}
	}()
}

// RunDigestLoop mails each user a summary of their active assignments
// touched within the last interval. Blocks until ctx is cancelled.
func (n *Notifier) RunDigestLoop(ctx context.Context, interval time.Duration) {
	if n == nil || !n.mailer.Configured() {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n.sendDigests(ctx, interval)
		}
	}
}

func (n *Notifier) sendDigests(ctx context.Context, window time.Duration) {
	entries, err := n.digests(ctx, time.Now().Add(-window))
	if err != nil {
		logging.Logger.Errorf("failed to collect digests: %v", err)

		return
	}

	for _, entry := range entries {
		if len(entry.Titles) == 0 {
			continue
		}
		err := n.mailer.Send(ctx, Message{
			To:      entry.Email,
			Subject: "Your task digest",
			Body: fmt.Sprintf("Hi %s, tasks with recent activity:\n%s",
				entry.Name, strings.Join(entry.Titles, "\n")),
		})
		if err != nil {
			logging.Logger.Errorf("failed to send digest to %s: %v", entry.Email, err)
		}
	}
}
