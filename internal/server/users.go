package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type userRequest struct {
	Username          string  `json:"username"`
	CognitoID         string  `json:"cognitoId"`
	ProfilePictureURL *string `json:"profilePictureUrl"`
	TeamID            *int64  `json:"teamId"`
}

// handleListUsers returns all users unfiltered.
func (s *Server) handleListUsers(c *gin.Context) {
	users, err := s.store.ListUsers(c.Request.Context())
	if err != nil {
		s.storeError(c, "retrieving users", err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// handleGetUser looks up one user by the identity provider subject id.
// An unknown id answers 200 with a null body, never 404: the client uses
// the null to decide whether the post-signup hook has run yet.
func (s *Server) handleGetUser(c *gin.Context) {
	user, err := s.store.GetUserByCognitoID(c.Request.Context(), c.Param("cognitoId"))
	if err != nil {
		s.storeError(c, "retrieving user", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// handleCreateUser registers a user record for a fresh identity provider
// sign-up. The caller is the trusted post-signup hook; authorization
// happened at the identity provider layer already.
func (s *Server) handleCreateUser(c *gin.Context) {
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.validationError(c, "creating user", err)
		return
	}

	user, err := s.store.CreateUser(c.Request.Context(), req.Username, req.CognitoID, req.ProfilePictureURL, req.TeamID)
	if err != nil {
		s.storeError(c, "creating user", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User Created Successfully", "newUser": user})
}
