package tracker

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Task operations are gated on view access: every project member (and the
// owner) may create and work tasks. Project-level administration stays behind
// the stricter actions.

func handleTaskList(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	projectID, ok := paramID(c, "projectid")
	if !ok {
		return
	}

	if !authorizeProject(c, projectID, userID, ActionView) {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	tasks, err := ListTasks(c.Request.Context(), projectID, ListTasksFilter{
		Status: c.Query("status"),
		Limit:  limit,
		Order:  c.DefaultQuery("order", "status_asc"),
	})
	if err != nil {
		respondError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"items": tasks, "limit": normalizeLimit(limit)})
}

func handleTaskCreate(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	projectID, ok := paramID(c, "projectid")
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})

		return
	}

	if !authorizeProject(c, projectID, userID, ActionView) {
		return
	}

	id, err := CreateTask(c.Request.Context(), projectID, req)
	if err != nil {
		respondError(c, err)

		return
	}

	notifier.TaskChanged(id, req.Title, "created")

	c.JSON(http.StatusCreated, gin.H{"status": "ok", "taskid": id})
}

func handleTaskShow(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	projectID, ok := paramID(c, "projectid")
	if !ok {
		return
	}
	taskID, ok := paramID(c, "taskid")
	if !ok {
		return
	}

	if !authorizeProject(c, projectID, userID, ActionView) {
		return
	}

	task, err := GetTask(c.Request.Context(), projectID, taskID)
	if err != nil {
		respondError(c, err)

		return
	}

	c.JSON(http.StatusOK, task)
}

func handleTaskUpdate(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	projectID, ok := paramID(c, "projectid")
	if !ok {
		return
	}
	taskID, ok := paramID(c, "taskid")
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})

		return
	}

	if !authorizeProject(c, projectID, userID, ActionView) {
		return
	}

	if err := UpdateTask(c.Request.Context(), projectID, taskID, req); err != nil {
		respondError(c, err)

		return
	}

	if t, err := GetTask(c.Request.Context(), projectID, taskID); err == nil {
		notifier.TaskChanged(taskID, t.Title, "updated")
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func handleTaskMove(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	projectID, ok := paramID(c, "projectid")
	if !ok {
		return
	}
	taskID, ok := paramID(c, "taskid")
	if !ok {
		return
	}

	var req MoveTaskRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})

		return
	}

	if !authorizeProject(c, projectID, userID, ActionView) {
		return
	}

	if err := MoveTask(c.Request.Context(), projectID, taskID, req.Status); err != nil {
		respondError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func handleTaskAssign(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	projectID, ok := paramID(c, "projectid")
	if !ok {
		return
	}
	taskID, ok := paramID(c, "taskid")
	if !ok {
		return
	}

	var req AssignTaskRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})

		return
	}

	if !authorizeProject(c, projectID, userID, ActionView) {
		return
	}

	if _, err := GetUserByID(c.Request.Context(), req.UserID); err != nil {
		respondError(c, err)

		return
	}
	if _, err := GetTask(c.Request.Context(), projectID, taskID); err != nil {
		respondError(c, err)

		return
	}

	if err := AssignTask(c.Request.Context(), projectID, taskID, req.UserID); err != nil {
		respondError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func handleTaskUnassign(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	projectID, ok := paramID(c, "projectid")
	if !ok {
		return
	}
	taskID, ok := paramID(c, "taskid")
	if !ok {
		return
	}

	var req AssignTaskRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})

		return
	}

	if !authorizeProject(c, projectID, userID, ActionView) {
		return
	}

	if err := UnassignTask(c.Request.Context(), taskID, req.UserID); err != nil {
		respondError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func handleTaskComplete(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	projectID, ok := paramID(c, "projectid")
	if !ok {
		return
	}
	taskID, ok := paramID(c, "taskid")
	if !ok {
		return
	}

	if !authorizeProject(c, projectID, userID, ActionView) {
		return
	}

	if err := CompleteTask(c.Request.Context(), projectID, taskID); err != nil {
		respondError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func handleTaskDelete(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	projectID, ok := paramID(c, "projectid")
	if !ok {
		return
	}
	taskID, ok := paramID(c, "taskid")
	if !ok {
		return
	}

	if !authorizeProject(c, projectID, userID, ActionView) {
		return
	}

	if err := DeleteTask(c.Request.Context(), projectID, taskID); err != nil {
		respondError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func handleCommentCreate(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	projectID, ok := paramID(c, "projectid")
	if !ok {
		return
	}
	taskID, ok := paramID(c, "taskid")
	if !ok {
		return
	}

	var req CreateCommentRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})

		return
	}

	if !authorizeProject(c, projectID, userID, ActionView) {
		return
	}

	if _, err := GetTask(c.Request.Context(), projectID, taskID); err != nil {
		respondError(c, err)

		return
	}

	id, err := CreateComment(c.Request.Context(), taskID, userID, req.Body)
	if err != nil {
		respondError(c, err)

		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "ok", "commentid": id})
}

func handleCommentList(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	projectID, ok := paramID(c, "projectid")
	if !ok {
		return
	}
	taskID, ok := paramID(c, "taskid")
	if !ok {
		return
	}

	if !authorizeProject(c, projectID, userID, ActionView) {
		return
	}

	if _, err := GetTask(c.Request.Context(), projectID, taskID); err != nil {
		respondError(c, err)

		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	order := c.DefaultQuery("order", "created_desc")

	comments, err := ListComments(c.Request.Context(), taskID, limit, order)
	if err != nil {
		respondError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"items": comments, "limit": normalizeLimit(limit), "order": order})
}
