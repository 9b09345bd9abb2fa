package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/joshualev/anchor/internal/storage/sqlite"
)

// Server provides HTTP handlers for the project management backend.
type Server struct {
	engine    *gin.Engine
	store     *sqlite.Store
	logger    *slog.Logger
	staticDir string
}

// New constructs the HTTP server with routes and middleware configured.
func New(store *sqlite.Store, logger *slog.Logger, staticDir string) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestID())
	router.Use(identity())

	srv := &Server{
		engine:    router,
		store:     store,
		logger:    logger,
		staticDir: staticDir,
	}

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires all API and static handlers together.
func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.handleHealth)

	projects := s.engine.Group("/projects")
	{
		projects.GET("", s.handleListProjects)
		projects.POST("", s.handleCreateProject)
	}

	tasks := s.engine.Group("/tasks")
	{
		tasks.GET("", s.handleListTasks)
		tasks.POST("", s.handleCreateTask)
		tasks.PATCH(":taskId/status", s.handleUpdateTaskStatus)
		tasks.GET("user/:userId", s.handleListUserTasks)
	}

	s.engine.GET("/teams", s.handleListTeams)

	users := s.engine.Group("/users")
	{
		users.GET("", s.handleListUsers)
		users.POST("", s.handleCreateUser)
		users.GET(":cognitoId", s.handleGetUser)
	}

	s.mountStatic()
}

// handleHealth provides a basic readiness endpoint.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// coerceID mirrors the client contract of passing numeric ids as strings:
// a non-numeric value coerces to 0, which matches no row, so lookups come
// back empty instead of failing.
func coerceID(raw string) int64 {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// storeError reports a failed store operation in the uniform error
// envelope: HTTP 500 with the underlying message embedded.
func (s *Server) storeError(c *gin.Context, action string, err error) {
	s.logger.Error("store operation failed",
		slog.String("request_id", requestIDFrom(c)),
		slog.String("path", c.FullPath()),
		slog.String("error", err.Error()))
	c.JSON(http.StatusInternalServerError, gin.H{"message": fmt.Sprintf("Error %s: %v", action, err)})
}

// validationError rejects malformed input before it reaches the store.
func (s *Server) validationError(c *gin.Context, action string, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"message": fmt.Sprintf("Error %s: %v", action, err)})
}
