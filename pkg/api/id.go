package api

import (
	"strings"

	"github.com/google/uuid"
)

type (
	// WorkflowID is a unique identifier for a workflow
	WorkflowID string

	// NodeID is a unique identifier for a node within a workflow
	NodeID string

	// SessionID identifies a subscriber connection
	SessionID string
)

const (
	workflowIDPrefix = "wf-"
	workflowIDLen    = 12
	nodeIDPrefix     = "node-"
	nodeIDLen        = 8
)

// NewWorkflowID generates a random workflow identifier
func NewWorkflowID() WorkflowID {
	return WorkflowID(workflowIDPrefix + randomHex(workflowIDLen))
}

// NewNodeID generates a random node identifier
func NewNodeID() NodeID {
	return NodeID(nodeIDPrefix + randomHex(nodeIDLen))
}

func randomHex(n int) string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return hex[:n]
}
