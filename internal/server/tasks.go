package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joshualev/anchor/internal/models"
)

type taskRequest struct {
	Title          string  `json:"title"`
	Description    *string `json:"description"`
	Status         string  `json:"status"`
	Priority       string  `json:"priority"`
	Tags           *string `json:"tags"`
	StartDate      *string `json:"startDate"`
	DueDate        *string `json:"dueDate"`
	Points         *int64  `json:"points"`
	ProjectID      int64   `json:"projectId"`
	AuthorUserID   int64   `json:"authorUserId"`
	AssignedUserID *int64  `json:"assignedUserId"`
}

type taskStatusRequest struct {
	Status string `json:"status"`
}

// handleListTasks fetches the tasks of one project, expanded with author,
// assignee, comments and attachments.
func (s *Server) handleListTasks(c *gin.Context) {
	projectID := coerceID(c.Query("projectId"))

	tasks, err := s.store.ListTasksByProject(c.Request.Context(), projectID)
	if err != nil {
		s.storeError(c, "retrieving tasks", err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// handleCreateTask inserts a new task. Enum members are validated here;
// the existence of projectId and the user references is left to the
// store's foreign keys.
func (s *Server) handleCreateTask(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.validationError(c, "creating task", err)
		return
	}

	if req.Status != "" {
		if _, err := models.ParseStatus(req.Status); err != nil {
			s.validationError(c, "creating task", err)
			return
		}
	}
	if req.Priority != "" {
		if _, err := models.ParsePriority(req.Priority); err != nil {
			s.validationError(c, "creating task", err)
			return
		}
	}

	task, err := s.store.CreateTask(c.Request.Context(), models.Task{
		Title:          req.Title,
		Description:    req.Description,
		Status:         req.Status,
		Priority:       req.Priority,
		Tags:           req.Tags,
		StartDate:      req.StartDate,
		DueDate:        req.DueDate,
		Points:         req.Points,
		ProjectID:      req.ProjectID,
		AuthorUserID:   req.AuthorUserID,
		AssignedUserID: req.AssignedUserID,
	})
	if err != nil {
		s.storeError(c, "creating task", err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// handleUpdateTaskStatus moves a task to another board column. Last writer
// wins; there is no optimistic concurrency check.
func (s *Server) handleUpdateTaskStatus(c *gin.Context) {
	taskID := coerceID(c.Param("taskId"))

	var req taskStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.validationError(c, "updating task", err)
		return
	}

	status, err := models.ParseStatus(req.Status)
	if err != nil {
		s.validationError(c, "updating task", err)
		return
	}

	task, err := s.store.UpdateTaskStatus(c.Request.Context(), taskID, status)
	if err != nil {
		s.storeError(c, "updating task", err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// handleListUserTasks fetches tasks the user authored or is assigned to.
func (s *Server) handleListUserTasks(c *gin.Context) {
	userID := coerceID(c.Param("userId"))

	tasks, err := s.store.ListTasksByUser(c.Request.Context(), userID)
	if err != nil {
		s.storeError(c, "retrieving users tasks", err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}
