package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// handleListTeams returns all teams with product owner and project manager
// usernames resolved.
func (s *Server) handleListTeams(c *gin.Context) {
	teams, err := s.store.ListTeams(c.Request.Context())
	if err != nil {
		s.storeError(c, "retrieving teams", err)
		return
	}
	c.JSON(http.StatusOK, teams)
}
