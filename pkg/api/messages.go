package api

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

type (
	// InitiateRequest starts a new workflow for a query
	InitiateRequest struct {
		Query     string    `json:"query"`
		SessionID SessionID `json:"session_id"`
	}

	// InitiateResponse is returned once a workflow has been launched
	InitiateResponse struct {
		WorkflowID WorkflowID `json:"workflow_id"`
	}

	// WorkflowDigest provides summary information about a workflow
	WorkflowDigest struct {
		CreatedAt   time.Time      `json:"created_at"`
		CompletedAt *time.Time     `json:"completed_at,omitempty"`
		ID          WorkflowID     `json:"id"`
		SessionID   SessionID      `json:"session_id"`
		Query       string         `json:"query"`
		Status      WorkflowStatus `json:"status"`
		Error       string         `json:"error,omitempty"`
		NodeCount   int            `json:"node_count"`
	}

	// WorkflowsListResponse contains a list of workflow summaries
	WorkflowsListResponse struct {
		Workflows []*WorkflowDigest `json:"workflows"`
		Count     int               `json:"count"`
	}

	// ServiceInfoResponse describes the running service
	ServiceInfoResponse struct {
		Name        string `json:"name"`
		Version     string `json:"version"`
		Environment string `json:"environment"`
		Status      string `json:"status"`
	}

	// HealthResponse provides service health information
	HealthResponse struct {
		Status string `json:"status"`
	}

	// AckMessage acknowledges a message received from a subscriber
	AckMessage struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}

	// ErrorResponse contains error details for failed requests
	ErrorResponse struct {
		Error  string `json:"error"`
		Status int    `json:"status,omitempty"`
	}
)

// MaxQueryLength is the longest query accepted, in characters
const MaxQueryLength = 2000

const AckStatus = "acknowledged"

var (
	ErrQueryRequired   = errors.New("query is required")
	ErrQueryTooLong    = errors.New("query is too long")
	ErrSessionRequired = errors.New("session_id is required")
)

// Validate checks the request fields
func (r *InitiateRequest) Validate() error {
	if r.Query == "" {
		return ErrQueryRequired
	}
	if n := utf8.RuneCountInString(r.Query); n > MaxQueryLength {
		return fmt.Errorf("%w: %d > %d", ErrQueryTooLong, n, MaxQueryLength)
	}
	if strings.TrimSpace(string(r.SessionID)) == "" {
		return ErrSessionRequired
	}
	return nil
}

// NewAck acknowledges an inbound subscriber message
func NewAck(msg string) *AckMessage {
	return &AckMessage{Status: AckStatus, Message: msg}
}
