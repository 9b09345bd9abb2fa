package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// projectRequest carries project fields as pointers: the handler does not
// enforce presence, absent fields insert NULL and the store rejects them.
type projectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	StartDate   *string `json:"startDate"`
	DueDate     *string `json:"dueDate"`
}

// handleListProjects returns all projects, unfiltered and unpaginated.
func (s *Server) handleListProjects(c *gin.Context) {
	projects, err := s.store.ListProjects(c.Request.Context())
	if err != nil {
		s.storeError(c, "retrieving projects", err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

// handleCreateProject creates a new project from the client form.
func (s *Server) handleCreateProject(c *gin.Context) {
	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.validationError(c, "creating project", err)
		return
	}

	project, err := s.store.CreateProject(c.Request.Context(), req.Name, req.Description, req.StartDate, req.DueDate)
	if err != nil {
		s.storeError(c, "creating project", err)
		return
	}
	c.JSON(http.StatusCreated, project)
}
