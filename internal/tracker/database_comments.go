package tracker

import (
	"context"
	"strings"
)

// CreateComment inserts the comment and broadcasts it to the owning
// project's channel. Comments publish on create only.
func CreateComment(ctx context.Context, taskID, authorID int64, body string) (int64, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return 0, &ValidationError{Field: "body", Reason: "required"}
	}

	var id int64
	err := pool.QueryRow(ctx, `
		INSERT INTO task_comments (taskid, authorid, body)
		VALUES ($1, $2, $3)
		RETURNING commentid
	`, taskID, authorID, body).Scan(&id)
	if err != nil {
		return 0, mapDBError(err)
	}

	if projectID, err := taskProjectID(ctx, taskID); err == nil {
		if cmt, err := getComment(ctx, id); err == nil {
			publishEntity("comment", id, projectID, cmt)
		}
	}
	return id, nil
}

func getComment(ctx context.Context, commentID int64) (*Comment, error) {
	var cmt Comment
	err := pool.QueryRow(ctx, `
		SELECT c.commentid, c.taskid, c.authorid, u.name, c.body, c.created_at
		FROM task_comments c
		JOIN users u ON u.userid = c.authorid
		WHERE c.commentid = $1
	`, commentID).Scan(&cmt.CommentID, &cmt.TaskID, &cmt.AuthorID, &cmt.Author, &cmt.Body, &cmt.CreatedAt)
	if err != nil {
		return nil, mapDBError(err)
	}
	return &cmt, nil
}

// ListComments returns the task's comments, newest first by default so the
// client list matches the prepend ordering of live events.
func ListComments(ctx context.Context, taskID int64, limit int, order string) ([]Comment, error) {
	limit = normalizeLimit(limit)
	orderSQL := commentOrderClause(order)

	rows, err := pool.Query(ctx, `
		SELECT c.commentid, c.taskid, c.authorid, COALESCE(u.name, ''), c.body, c.created_at
		FROM task_comments c
		LEFT JOIN users u ON u.userid = c.authorid
		WHERE c.taskid = $1
		ORDER BY `+orderSQL+`
		LIMIT $2
	`, taskID, limit)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()

	out := make([]Comment, 0, limit)
	for rows.Next() {
		var cmt Comment
		if err := rows.Scan(&cmt.CommentID, &cmt.TaskID, &cmt.AuthorID, &cmt.Author, &cmt.Body, &cmt.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, cmt)
	}
	return out, rows.Err()
}
