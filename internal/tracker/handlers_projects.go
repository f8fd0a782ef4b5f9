package tracker

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"projecthub/internal/authmw"
	"projecthub/internal/logging"
)

// mustUser resolves the authenticated caller into a local user id,
// provisioning the row on first contact. Aborts with 401 when identity is
// missing from the context.
func mustUser(c *gin.Context) (int64, bool) {
	emailAny, _ := c.Get(authmw.CtxEmail)
	nameAny, _ := c.Get(authmw.CtxName)
	email, _ := emailAny.(string)
	name, _ := nameAny.(string)
	if email == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return 0, false
	}

	userID, err := EnsureUser(c.Request.Context(), email, name)
	if err != nil {
		logging.Logger.Errorf("failed to provision user %s: %v", email, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return 0, false
	}

	return userID, true
}

func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing/invalid " + name})
		return 0, false
	}
	return id, true
}

// authorizeProject gates the request on the policy table. The mutation is
// never applied when the predicate denies.
func authorizeProject(c *gin.Context, projectID, userID int64, action Action) bool {
	m, err := membershipFor(c.Request.Context(), projectID, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
			return false
		}
		logging.Logger.Errorf("failed to resolve membership on project %d: %v", projectID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return false
	}

	if !Allows(action, m) {
		c.JSON(http.StatusForbidden, gin.H{"error": "unauthorized"})
		return false
	}

	return true
}

func respondError(c *gin.Context, err error) {
	var vErr *ValidationError
	switch {
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Reason, "field": vErr.Field})
	default:
		logging.Logger.Errorf("request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
	}
}

func handleProjectList(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	projects, err := ListActiveProjectsForUser(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"items": projects, "limit": normalizeLimit(limit)})
}

func handleProjectCreate(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}

	var req CreateProjectRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})

		return
	}

	id, err := CreateProject(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)

		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "ok", "projectid": id})
}

func handleProjectShow(c *gin.Context) {
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

	project, err := GetProject(c.Request.Context(), projectID)
	if err != nil {
		respondError(c, err)

		return
	}

	c.JSON(http.StatusOK, project)
}

func handleProjectUpdate(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	projectID, ok := paramID(c, "projectid")
	if !ok {
		return
	}

	var req UpdateProjectRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})

		return
	}

	if !authorizeProject(c, projectID, userID, ActionUpdate) {
		return
	}

	if err := UpdateProject(c.Request.Context(), projectID, req); err != nil {
		respondError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func handleProjectArchive(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	projectID, ok := paramID(c, "projectid")
	if !ok {
		return
	}

	if !authorizeProject(c, projectID, userID, ActionArchive) {
		return
	}

	if err := ArchiveProject(c.Request.Context(), projectID); err != nil {
		respondError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func handleProjectDelete(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	projectID, ok := paramID(c, "projectid")
	if !ok {
		return
	}

	if !authorizeProject(c, projectID, userID, ActionDestroy) {
		return
	}

	if err := DeleteProject(c.Request.Context(), projectID); err != nil {
		respondError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func handleMemberAdd(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	projectID, ok := paramID(c, "projectid")
	if !ok {
		return
	}

	var req AddMemberRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})

		return
	}
	if req.UserID <= 0 && req.Username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "provide userid or username"})

		return
	}

	if !authorizeProject(c, projectID, userID, ActionAddMember) {
		return
	}

	targetID := req.UserID
	if targetID <= 0 {
		// resolve through the directory and mirror locally
		du, err := directory.LookupUser(c.Request.Context(), req.Username)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})

			return
		}
		targetID, err = EnsureUser(c.Request.Context(), du.Email, du.Name)
		if err != nil {
			respondError(c, err)

			return
		}
	} else if _, err := GetUserByID(c.Request.Context(), targetID); err != nil {
		respondError(c, err)

		return
	}

	if err := AddMember(c.Request.Context(), projectID, targetID, req.Role); err != nil {
		respondError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "userid": targetID})
}

func handleMemberRemove(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}
	projectID, ok := paramID(c, "projectid")
	if !ok {
		return
	}
	targetID, ok := paramID(c, "userid")
	if !ok {
		return
	}

	if !authorizeProject(c, projectID, userID, ActionRemoveMember) {
		return
	}

	if err := RemoveMember(c.Request.Context(), projectID, targetID); err != nil {
		respondError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func handleUsersList(c *gin.Context) {
	if _, ok := mustUser(c); !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	users, err := directory.ListUsers(c.Request.Context(), limit)
	if err != nil {
		logging.Logger.Errorf("failed to list directory users: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "directory error"})

		return
	}

	c.JSON(http.StatusOK, gin.H{"items": users, "limit": limit})
}
