// Package remote serves a task collection over HTTP so several tasksync
// clients can replicate to the same place.
package remote

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/fentz26/tasksync/internal/network"
	"github.com/gin-gonic/gin"
)

// ErrInvalidTask is returned for a pushed task that cannot be stored.
var ErrInvalidTask = errors.New("invalid task")

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	OK    bool   `json:"ok"`
	Tasks int    `json:"tasks"`
	Time  string `json:"time"`
	Error string `json:"error,omitempty"`
}

// Server exposes a network.DataSource as GET and PUT on /api/tasks.
type Server struct {
	backend network.DataSource
	addr    string
	router  *gin.Engine
	server  *http.Server
}

// NewServer creates a server storing tasks in backend.
func NewServer(backend network.DataSource, addr string) *Server {
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		backend: backend,
		addr:    addr,
		router:  router,
	}

	router.GET("/health", s.handleHealth)

	api := router.Group("/api")
	{
		api.GET("/tasks", s.handleLoad)
		api.PUT("/tasks", s.handleSave)
	}

	return s
}

// Handler returns the HTTP handler, for embedding and tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Printf("remote: serving tasks on %s", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	resp := HealthResponse{OK: true, Time: time.Now().UTC().Format(time.RFC3339)}

	tasks, err := s.backend.LoadTasks(c.Request.Context())
	if err != nil {
		resp.OK = false
		resp.Error = err.Error()
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	resp.Tasks = len(tasks)
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleLoad(c *gin.Context) {
	tasks, err := s.backend.LoadTasks(c.Request.Context())
	if err != nil {
		log.Printf("remote: load failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if tasks == nil {
		tasks = []network.NetworkTask{}
	}
	c.JSON(http.StatusOK, tasks)
}

func (s *Server) handleSave(c *gin.Context) {
	var tasks []network.NetworkTask
	if err := c.ShouldBindJSON(&tasks); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	for i, t := range tasks {
		if err := validate(t); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("task %d: %v", i, err)})
			return
		}
	}

	if err := s.backend.SaveTasks(c.Request.Context(), tasks); err != nil {
		log.Printf("remote: save failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func validate(t network.NetworkTask) error {
	if t.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidTask)
	}
	switch t.Status {
	case network.TaskStatusActive, network.TaskStatusComplete:
		return nil
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTask, t.Status)
	}
}
