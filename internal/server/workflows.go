package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abdulateeb/Agentic-Chat/internal/state"
	"github.com/abdulateeb/Agentic-Chat/internal/workflow"
	"github.com/abdulateeb/Agentic-Chat/pkg/api"
	"github.com/abdulateeb/Agentic-Chat/pkg/log"
)

func (s *Server) initiateChat(c *gin.Context) {
	var req api.InitiateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Error:  fmt.Sprintf("%s: %v", ErrInvalidJSON, err),
			Status: http.StatusBadRequest,
		})
		return
	}

	slog.Info("Chat initiation request received",
		log.SessionID(req.SessionID),
		slog.Int("query_length", len(req.Query)))

	id, err := s.workflows.Start(c.Request.Context(), req.SessionID, req.Query)
	if err != nil {
		s.writeError(c, ErrStartWorkflow, err)
		return
	}

	c.JSON(http.StatusOK, api.InitiateResponse{WorkflowID: id})
}

func (s *Server) listWorkflows(c *gin.Context) {
	wfs, err := s.workflows.List(c.Request.Context())
	if err != nil {
		s.writeError(c, ErrListWorkflows, err)
		return
	}

	digests := make([]*api.WorkflowDigest, 0, len(wfs))
	for _, wf := range wfs {
		digests = append(digests, wf.Digest())
	}
	c.JSON(http.StatusOK, api.WorkflowsListResponse{
		Workflows: digests,
		Count:     len(digests),
	})
}

func (s *Server) getWorkflow(c *gin.Context) {
	id := api.WorkflowID(c.Param("workflowID"))
	wf, err := s.workflows.Get(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, ErrGetWorkflow, err)
		return
	}
	c.JSON(http.StatusOK, wf)
}

func (s *Server) deleteWorkflow(c *gin.Context) {
	id := api.WorkflowID(c.Param("workflowID"))
	if err := s.workflows.Delete(c.Request.Context(), id); err != nil {
		s.writeError(c, ErrDeleteWorkflow, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) writeError(c *gin.Context, op, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed",
			slog.String("path", c.FullPath()),
			log.Error(err))
	}
	c.JSON(status, api.ErrorResponse{
		Error:  fmt.Sprintf("%s: %v", op, err),
		Status: status,
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, api.ErrQueryRequired),
		errors.Is(err, api.ErrQueryTooLong),
		errors.Is(err, api.ErrSessionRequired):
		return http.StatusBadRequest
	case errors.Is(err, state.ErrWorkflowNotFound):
		return http.StatusNotFound
	case errors.Is(err, state.ErrWorkflowExists),
		errors.Is(err, state.ErrWorkflowActive):
		return http.StatusConflict
	case errors.Is(err, workflow.ErrStopped):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
