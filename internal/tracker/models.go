package tracker

import "time"

// Task status enum. Any value is reachable from any other: move does not
// validate transition legality (done -> todo is accepted). Flagged as an open
// product question, left as-is on purpose.
const (
	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
)

// Assignment lifecycle statuses.
const (
	AssignmentActive    = "active"
	AssignmentCompleted = "completed"
	AssignmentPaused    = "paused"
)

// Membership roles.
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

const defaultPriority = "Medium"

type User struct {
	UserID    int64     `json:"userid"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Project struct {
	ProjectID   int64      `json:"projectid"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	OwnerID     int64      `json:"ownerid"`
	ArchivedAt  *time.Time `json:"archived_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`

	MemberCount int             `json:"memberCount"`
	Members     []ProjectMember `json:"members,omitempty"`
}

type ProjectMember struct {
	ProjectID int64  `json:"projectid,omitempty"`
	UserID    int64  `json:"userid"`
	Name      string `json:"name,omitempty"`
	Role      string `json:"role"` // member/admin
}

type Task struct {
	TaskID      int64      `json:"taskid"`
	ProjectID   int64      `json:"projectid"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`

	Assignees []TaskAssignment `json:"assignees,omitempty"`
}

type TaskAssignment struct {
	TaskID    int64     `json:"taskid"`
	UserID    int64     `json:"userid"`
	Status    string    `json:"status"` // active/completed/paused
	CreatedAt time.Time `json:"created_at"`
}

type Comment struct {
	CommentID int64     `json:"commentid"`
	TaskID    int64     `json:"taskid"`
	AuthorID  int64     `json:"authorid"`
	Author    string    `json:"author,omitempty"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateProjectRequest struct {
	Name        string `json:"name" form:"name" binding:"required,min=2,max=120"`
	Description string `json:"description" form:"description" binding:"max=2000"`
}

type UpdateProjectRequest struct {
	Name        *string `json:"name" form:"name" binding:"omitempty,min=2,max=120"`
	Description *string `json:"description" form:"description" binding:"omitempty,max=2000"`
}

type AddMemberRequest struct {
	UserID   int64  `json:"userid" form:"userid"`
	Username string `json:"username" form:"username" binding:"max=128"`
	Role     string `json:"role" form:"role" binding:"omitempty,oneof=member admin"`
}

type CreateTaskRequest struct {
	Title       string `json:"title" form:"title" binding:"required,min=2,max=120"`
	Description string `json:"description" form:"description" binding:"max=2000"`
	Priority    string `json:"priority" form:"priority" binding:"max=32"`
}

type UpdateTaskRequest struct {
	Title       *string `json:"title" form:"title" binding:"omitempty,min=2,max=120"`
	Description *string `json:"description" form:"description" binding:"omitempty,max=2000"`
	Priority    *string `json:"priority" form:"priority" binding:"omitempty,max=32"`
}

type MoveTaskRequest struct {
	Status string `json:"status" form:"status" binding:"required,oneof=todo in_progress done"`
}

type AssignTaskRequest struct {
	UserID int64 `json:"userid" form:"userid" binding:"required,gt=0"`
}

type CreateCommentRequest struct {
	Body string `json:"body" form:"body" binding:"required,min=1,max=2000"`
}

func validStatus(status string) bool {
	return status == StatusTodo || status == StatusInProgress || status == StatusDone
}

func normalizeLimit(n int) int {
	if n <= 0 {
		return 20
	}
	if n > 100 {
		return 100
	}
	return n
}

func taskOrderClause(order string) string {
	switch order {
	case "created_asc":
		return "created_at ASC"
	case "created_desc":
		return "created_at DESC"
	case "status_asc":
		fallthrough
	default:
		// board order: todo, in_progress, done, newest first inside a column
		return "CASE status WHEN 'todo' THEN 0 WHEN 'in_progress' THEN 1 ELSE 2 END, created_at DESC"
	}
}

func commentOrderClause(order string) string {
	// newest first by default so clients can prepend on live inserts
	if order == "created_asc" {
		return "created_at ASC"
	}
	return "created_at DESC"
}
