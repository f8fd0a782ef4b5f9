package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// CreateProject inserts the project and enrolls the owner as its first
// member, in one transaction. The owner reference is required here even
// though the column is nullable (it is only nulled when the owner account is
// deleted later).
func CreateProject(ctx context.Context, ownerID int64, req CreateProjectRequest) (int64, error) {
	if ownerID <= 0 {
		return 0, &ValidationError{Field: "ownerid", Reason: "required"}
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var id int64
	err = tx.QueryRow(ctx,
		`INSERT INTO projects (name, description, ownerid) VALUES ($1, $2, $3) RETURNING projectid`,
		strings.TrimSpace(req.Name), req.Description, ownerID,
	).Scan(&id)
	if err != nil {
		return 0, mapDBError(err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO project_members (projectid, userid, role)
		VALUES ($1, $2, 'member')
	`, id, ownerID)
	if err != nil {
		return 0, mapDBError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}

	if p, err := GetProject(ctx, id); err == nil {
		publishEntity("project", id, id, p)
	}
	return id, nil
}

// GetProject loads one project with its member list aggregated in. Direct
// lookups include archived projects; only the active listing filters them.
func GetProject(ctx context.Context, projectID int64) (*Project, error) {
	row := pool.QueryRow(ctx, `
		SELECT
		  p.projectid,
		  p.name,
		  COALESCE(p.description, '') AS description,
		  COALESCE(p.ownerid, 0) AS ownerid,
		  p.archived_at,
		  p.created_at,

		  COALESCE(COUNT(m.userid), 0) AS member_count,

		  COALESCE(
		    json_agg(
		      json_build_object('userid', m.userid, 'name', u.name, 'role', m.role)
		      ORDER BY (m.role = 'admin') DESC, u.name
		    ) FILTER (WHERE m.userid IS NOT NULL),
		    '[]'::json
		  ) AS members_json

		FROM projects p
		LEFT JOIN project_members m ON m.projectid = p.projectid
		LEFT JOIN users u ON u.userid = m.userid
		WHERE p.projectid = $1
		GROUP BY p.projectid
	`, projectID)

	var (
		p           Project
		membersJSON []byte
	)
	if err := row.Scan(
		&p.ProjectID,
		&p.Name,
		&p.Description,
		&p.OwnerID,
		&p.ArchivedAt,
		&p.CreatedAt,
		&p.MemberCount,
		&membersJSON,
	); err != nil {
		return nil, mapDBError(err)
	}

	if err := json.Unmarshal(membersJSON, &p.Members); err != nil {
		return nil, fmt.Errorf("unmarshal members_json: %w", err)
	}

	return &p, nil
}

// ListActiveProjectsForUser returns the caller's non-archived projects
// (owned or joined), most recent first.
func ListActiveProjectsForUser(ctx context.Context, userID int64, limit int) ([]Project, error) {
	limit = normalizeLimit(limit)

	rows, err := pool.Query(ctx, `
		SELECT
		  p.projectid,
		  p.name,
		  COALESCE(p.description, '') AS description,
		  COALESCE(p.ownerid, 0) AS ownerid,
		  p.archived_at,
		  p.created_at,
		  COALESCE(COUNT(m.userid), 0) AS member_count
		FROM projects p
		LEFT JOIN project_members m ON m.projectid = p.projectid
		WHERE p.archived_at IS NULL
		  AND (p.ownerid = $1 OR EXISTS (
		    SELECT 1 FROM project_members me
		    WHERE me.projectid = p.projectid AND me.userid = $1
		  ))
		GROUP BY p.projectid
		ORDER BY p.created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()

	out := make([]Project, 0, limit)
	for rows.Next() {
		var p Project
		if err := rows.Scan(
			&p.ProjectID,
			&p.Name,
			&p.Description,
			&p.OwnerID,
			&p.ArchivedAt,
			&p.CreatedAt,
			&p.MemberCount,
		); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func UpdateProject(ctx context.Context, projectID int64, req UpdateProjectRequest) error {
	sets := make([]string, 0, 2)
	args := make([]any, 0, 3)
	i := 1

	if req.Name != nil {
		sets = append(sets, fmt.Sprintf("name = $%d", i))
		args = append(args, strings.TrimSpace(*req.Name))
		i++
	}
	if req.Description != nil {
		sets = append(sets, fmt.Sprintf("description = $%d", i))
		args = append(args, *req.Description)
		i++
	}

	if len(sets) == 0 {
		return &ValidationError{Field: "name", Reason: "provide fields to update"}
	}
	sets = append(sets, "updated_at = now()")

	args = append(args, projectID)
	q := fmt.Sprintf("UPDATE projects SET %s WHERE projectid = $%d", strings.Join(sets, ", "), i)

	ct, err := pool.Exec(ctx, q, args...)
	if err != nil {
		return mapDBError(err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}

	if p, err := GetProject(ctx, projectID); err == nil {
		publishEntity("project", projectID, projectID, p)
	}
	return nil
}

// ArchiveProject stamps archived_at with the current time. Re-archiving just
// overwrites the stamp; there is no unarchive.
func ArchiveProject(ctx context.Context, projectID int64) error {
	ct, err := pool.Exec(ctx,
		`UPDATE projects SET archived_at = now(), updated_at = now() WHERE projectid = $1`,
		projectID)
	if err != nil {
		return mapDBError(err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}

	if p, err := GetProject(ctx, projectID); err == nil {
		publishEntity("project", projectID, projectID, p)
	}
	return nil
}

// DeleteProject removes the project; tasks, memberships, assignments and
// comments go with it via the schema cascades.
func DeleteProject(ctx context.Context, projectID int64) error {
	ct, err := pool.Exec(ctx, `DELETE FROM projects WHERE projectid = $1`, projectID)
	if err != nil {
		return mapDBError(err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddMember enrolls the user on the project. Idempotent: a duplicate call is
// a no-op, not an error.
func AddMember(ctx context.Context, projectID, userID int64, role string) error {
	if role == "" {
		role = RoleMember
	}

	_, err := pool.Exec(ctx, `
		INSERT INTO project_members (projectid, userid, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (projectid, userid) DO NOTHING
	`, projectID, userID, role)
	return mapDBError(err)
}

// RemoveMember drops the membership if present, no-op otherwise.
func RemoveMember(ctx context.Context, projectID, userID int64) error {
	_, err := pool.Exec(ctx, `
		DELETE FROM project_members
		WHERE projectid = $1 AND userid = $2
	`, projectID, userID)
	return mapDBError(err)
}

// membershipFor resolves the caller's standing on a project for the policy
// table. Returns ErrNotFound when the project id does not resolve.
func membershipFor(ctx context.Context, projectID, userID int64) (Membership, error) {
	var (
		m       Membership
		ownerID *int64
		role    *string
	)
	err := pool.QueryRow(ctx, `
		SELECT p.ownerid, m.role
		FROM projects p
		LEFT JOIN project_members m ON m.projectid = p.projectid AND m.userid = $2
		WHERE p.projectid = $1
	`, projectID, userID).Scan(&ownerID, &role)
	if err != nil {
		return m, mapDBError(err)
	}

	m.IsOwner = ownerID != nil && *ownerID == userID
	if role != nil {
		m.IsMember = true
		m.Role = *role
	}
	return m, nil
}
