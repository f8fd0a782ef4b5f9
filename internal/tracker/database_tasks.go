package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

func CreateTask(ctx context.Context, projectID int64, req CreateTaskRequest) (int64, error) {
	priority := strings.TrimSpace(req.Priority)
	if priority == "" {
		priority = defaultPriority
	}

	var id int64
	err := pool.QueryRow(ctx, `
		INSERT INTO tasks (projectid, title, description, priority)
		VALUES ($1, $2, $3, $4)
		RETURNING taskid
	`, projectID, strings.TrimSpace(req.Title), req.Description, priority).Scan(&id)
	if err != nil {
		return 0, mapDBError(err)
	}

	if t, err := GetTask(ctx, projectID, id); err == nil {
		publishEntity("task", id, projectID, t)
	}
	return id, nil
}

// GetTask loads one task scoped to its project, assignees aggregated in.
func GetTask(ctx context.Context, projectID, taskID int64) (*Task, error) {
	row := pool.QueryRow(ctx, `
		SELECT
		  t.taskid,
		  t.projectid,
		  t.title,
		  COALESCE(t.description, '') AS description,
		  t.priority,
		  t.status,
		  t.completed_at,
		  t.created_at,

		  COALESCE(
		    json_agg(
		      json_build_object('taskid', a.taskid, 'userid', a.userid, 'status', a.status)
		    ) FILTER (WHERE a.userid IS NOT NULL),
		    '[]'::json
		  ) AS assignees_json

		FROM tasks t
		LEFT JOIN task_assignments a ON a.taskid = t.taskid
		WHERE t.taskid = $1 AND t.projectid = $2
		GROUP BY t.taskid
	`, taskID, projectID)

	var (
		t             Task
		assigneesJSON []byte
	)
	if err := row.Scan(
		&t.TaskID,
		&t.ProjectID,
		&t.Title,
		&t.Description,
		&t.Priority,
		&t.Status,
		&t.CompletedAt,
		&t.CreatedAt,
		&assigneesJSON,
	); err != nil {
		return nil, mapDBError(err)
	}

	if err := json.Unmarshal(assigneesJSON, &t.Assignees); err != nil {
		return nil, fmt.Errorf("unmarshal assignees_json: %w", err)
	}

	return &t, nil
}

type ListTasksFilter struct {
	Status string
	Limit  int
	Order  string
}

func ListTasks(ctx context.Context, projectID int64, f ListTasksFilter) ([]Task, error) {
	limit := normalizeLimit(f.Limit)
	orderSQL := taskOrderClause(f.Order)

	where := []string{"projectid = $1"}
	args := []any{projectID}
	i := 2

	if strings.TrimSpace(f.Status) != "" {
		where = append(where, fmt.Sprintf("status = $%d", i))
		args = append(args, strings.TrimSpace(f.Status))
		i++
	}

	q := fmt.Sprintf(`
		SELECT taskid, projectid, title, COALESCE(description,''), priority, status,
		       completed_at, created_at
		FROM tasks
		WHERE %s
		ORDER BY %s
		LIMIT $%d
	`, strings.Join(where, " AND "), orderSQL, i)

	args = append(args, limit)

	rows, err := pool.Query(ctx, q, args...)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()

	out := make([]Task, 0, limit)
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.TaskID, &t.ProjectID, &t.Title, &t.Description,
			&t.Priority, &t.Status, &t.CompletedAt, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func UpdateTask(ctx context.Context, projectID, taskID int64, req UpdateTaskRequest) error {
	sets := make([]string, 0, 3)
	args := make([]any, 0, 5)
	i := 1

	if req.Title != nil {
		sets = append(sets, fmt.Sprintf("title = $%d", i))
		args = append(args, strings.TrimSpace(*req.Title))
		i++
	}
	if req.Description != nil {
		sets = append(sets, fmt.Sprintf("description = $%d", i))
		args = append(args, *req.Description)
		i++
	}
	if req.Priority != nil {
		sets = append(sets, fmt.Sprintf("priority = $%d", i))
		args = append(args, *req.Priority)
		i++
	}

	if len(sets) == 0 {
		return &ValidationError{Field: "title", Reason: "provide fields to update"}
	}
	sets = append(sets, "updated_at = now()")

	args = append(args, taskID, projectID)
	q := fmt.Sprintf("UPDATE tasks SET %s WHERE taskid = $%d AND projectid = $%d",
		strings.Join(sets, ", "), i, i+1)

	ct, err := pool.Exec(ctx, q, args...)
	if err != nil {
		return mapDBError(err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}

	if t, err := GetTask(ctx, projectID, taskID); err == nil {
		publishEntity("task", taskID, projectID, t)
	}
	return nil
}

// MoveTask sets the status, nothing more. There is deliberately no check that
// the transition is "legal" -- done back to todo is accepted. The enum check
// on the column is the only gate.
func MoveTask(ctx context.Context, projectID, taskID int64, status string) error {
	if !validStatus(status) {
		return &ValidationError{Field: "status", Reason: "invalid value"}
	}

	ct, err := pool.Exec(ctx, `
		UPDATE tasks SET status = $1, updated_at = now()
		WHERE taskid = $2 AND projectid = $3
	`, status, taskID, projectID)
	if err != nil {
		return mapDBError(err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}

	if t, err := GetTask(ctx, projectID, taskID); err == nil {
		publishEntity("task", taskID, projectID, t)
	}
	return nil
}

// CompleteTask marks the task done and stamps completed_at. It does not
// touch assignments.
func CompleteTask(ctx context.Context, projectID, taskID int64) error {
	ct, err := pool.Exec(ctx, `
		UPDATE tasks SET status = 'done', completed_at = now(), updated_at = now()
		WHERE taskid = $1 AND projectid = $2
	`, taskID, projectID)
	if err != nil {
		return mapDBError(err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}

	if t, err := GetTask(ctx, projectID, taskID); err == nil {
		publishEntity("task", taskID, projectID, t)
	}
	return nil
}

func DeleteTask(ctx context.Context, projectID, taskID int64) error {
	ct, err := pool.Exec(ctx,
		`DELETE FROM tasks WHERE taskid = $1 AND projectid = $2`, taskID, projectID)
	if err != nil {
		return mapDBError(err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AssignTask find-or-creates the (task, user) assignment. Calling it twice
// leaves exactly one row; the broadcast fires only when a row was actually
// inserted.
func AssignTask(ctx context.Context, projectID, taskID, userID int64) error {
	ct, err := pool.Exec(ctx, `
		INSERT INTO task_assignments (taskid, userid)
		VALUES ($1, $2)
		ON CONFLICT (taskid, userid) DO NOTHING
	`, taskID, userID)
	if err != nil {
		return mapDBError(err)
	}

	if ct.RowsAffected() > 0 {
		publishEntity("task_assignment", taskID, projectID, TaskAssignment{
			TaskID: taskID,
			UserID: userID,
			Status: AssignmentActive,
		})
	}
	return nil
}

// UnassignTask drops the (task, user) assignment if one exists.
func UnassignTask(ctx context.Context, taskID, userID int64) error {
	_, err := pool.Exec(ctx, `
		DELETE FROM task_assignments
		WHERE taskid = $1 AND userid = $2
	`, taskID, userID)
	return mapDBError(err)
}

// taskProjectID resolves the owning project for task-scoped entities.
func taskProjectID(ctx context.Context, taskID int64) (int64, error) {
	var projectID int64
	err := pool.QueryRow(ctx,
		`SELECT projectid FROM tasks WHERE taskid = $1`, taskID).Scan(&projectID)
	return projectID, mapDBError(err)
}

// ListAssigneeEmails returns the emails of users actively assigned to the
// task, for notification dispatch.
func ListAssigneeEmails(ctx context.Context, taskID int64) ([]string, error) {
	rows, err := pool.Query(ctx, `
		SELECT u.email
		FROM task_assignments a
		JOIN users u ON u.userid = a.userid
		WHERE a.taskid = $1 AND a.status = 'active'
	`, taskID)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		out = append(out, email)
	}
	return out, rows.Err()
}
