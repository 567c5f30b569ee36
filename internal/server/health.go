package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	app "github.com/abdulateeb/Agentic-Chat"
	"github.com/abdulateeb/Agentic-Chat/pkg/api"
)

const (
	statusHealthy = "healthy"
	statusOK      = "ok"
)

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, api.ServiceInfoResponse{
		Name:        app.Name,
		Version:     app.Version,
		Environment: s.config.Environment,
		Status:      statusHealthy,
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, api.HealthResponse{Status: statusOK})
}
