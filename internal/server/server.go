package server

import (
	"errors"
	"log/slog"
	"net/http"

	glog "github.com/gin-contrib/slog"
	"github.com/gin-gonic/gin"

	"github.com/abdulateeb/Agentic-Chat/internal/config"
	"github.com/abdulateeb/Agentic-Chat/internal/registry"
	"github.com/abdulateeb/Agentic-Chat/internal/workflow"
	"github.com/abdulateeb/Agentic-Chat/pkg/util"
)

// Server implements the HTTP API server for the workflow service
type Server struct {
	workflows *workflow.Service
	registry  *registry.Registry
	config    *config.Config
	origins   util.Set[string]
}

const anyOrigin = "*"

var (
	ErrInvalidJSON    = errors.New("invalid JSON")
	ErrListWorkflows  = errors.New("failed to list workflows")
	ErrGetWorkflow    = errors.New("failed to get workflow")
	ErrStartWorkflow  = errors.New("failed to start workflow")
	ErrDeleteWorkflow = errors.New("failed to delete workflow")
)

// NewServer creates a new HTTP API server
func NewServer(
	svc *workflow.Service, reg *registry.Registry, cfg *config.Config,
) *Server {
	return &Server{
		workflows: svc,
		registry:  reg,
		config:    cfg,
		origins:   util.SetOf(cfg.CORSOrigins...),
	}
}

// SetupRoutes configures and returns the HTTP router with all API endpoints
func (s *Server) SetupRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(glog.SetLogger(
		glog.WithLogger(func(c *gin.Context, l *slog.Logger) *slog.Logger {
			return slog.Default()
		}),
	))
	router.Use(s.cors)

	router.GET("/", s.handleRoot)
	router.GET("/health", s.handleHealth)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/chat/initiate", s.initiateChat)

		v1.GET("/workflows", s.listWorkflows)
		v1.GET("/workflows/:workflowID", s.getWorkflow)
		v1.DELETE("/workflows/:workflowID", s.deleteWorkflow)
	}

	router.GET("/ws/:sessionID/:workflowID", s.handleWebSocket)

	return router
}

// CloseWebSockets closes all active WebSocket connections
func (s *Server) CloseWebSockets() {
	s.registry.CloseAll()
}

func (s *Server) cors(c *gin.Context) {
	origin := c.GetHeader("Origin")
	switch {
	case s.origins.Contains(anyOrigin):
		c.Writer.Header().Set("Access-Control-Allow-Origin", anyOrigin)
	case origin != "" && s.origins.Contains(origin):
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Add("Vary", "Origin")
	}
	c.Writer.Header().Set(
		"Access-Control-Allow-Methods",
		"GET, POST, PUT, DELETE, OPTIONS",
	)
	c.Writer.Header().Set(
		"Access-Control-Allow-Headers",
		"Content-Type, Authorization",
	)

	if c.Request.Method == http.MethodOptions {
		c.AbortWithStatus(http.StatusOK)
		return
	}

	c.Next()
}

func (s *Server) originAllowed(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "" || s.origins.Contains(anyOrigin) ||
		s.origins.Contains(origin)
}
