package tracker

import (
	"context"
	"strings"
	"time"
)

// EnsureUser provisions (or refreshes) the local row mirroring an
// authenticated identity. Keyed by email; the name follows whatever the
// identity provider currently reports.
func EnsureUser(ctx context.Context, email, name string) (int64, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return 0, &ValidationError{Field: "email", Reason: "required"}
	}
	if strings.TrimSpace(name) == "" {
		return 0, &ValidationError{Field: "name", Reason: "required"}
	}

	var id int64
	err := pool.QueryRow(ctx, `
		INSERT INTO users (email, name)
		VALUES ($1, $2)
		ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name, updated_at = now()
		RETURNING userid
	`, email, strings.TrimSpace(name)).Scan(&id)
	return id, mapDBError(err)
}

func GetUserByID(ctx context.Context, userID int64) (*User, error) {
	var u User
	err := pool.QueryRow(ctx, `
		SELECT userid, email, name, created_at
		FROM users
		WHERE userid = $1
	`, userID).Scan(&u.UserID, &u.Email, &u.Name, &u.CreatedAt)
	if err != nil {
		return nil, mapDBError(err)
	}
	return &u, nil
}

// DigestEntry is one user's bundle for the periodic digest mail.
type DigestEntry struct {
	Email  string
	Name   string
	Titles []string
}

// ListDigestEntries collects, per user, the titles of actively assigned tasks
// touched since the cutoff.
func ListDigestEntries(ctx context.Context, since time.Time) ([]DigestEntry, error) {
	rows, err := pool.Query(ctx, `
		SELECT u.email, u.name, array_agg(t.title ORDER BY t.updated_at DESC)
		FROM users u
		JOIN task_assignments ta ON ta.userid = u.userid AND ta.status = 'active'
		JOIN tasks t ON t.taskid = ta.taskid
		WHERE t.updated_at > $1
		GROUP BY u.userid
	`, since)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()

	var out []DigestEntry
	for rows.Next() {
		var e DigestEntry
		if err := rows.Scan(&e.Email, &e.Name, &e.Titles); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
