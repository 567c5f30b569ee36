package api

import (
	"time"

	"github.com/abdulateeb/Agentic-Chat/pkg/util"
)

type (
	// WorkflowStatus represents the current state of a workflow
	WorkflowStatus string

	// Workflow contains the complete state of one user query from start
	// to finish, including every node created while handling it
	Workflow struct {
		CreatedAt   time.Time        `json:"created_at"`
		CompletedAt *time.Time       `json:"completed_at"`
		Nodes       map[NodeID]*Node `json:"node_tree"`
		ID          WorkflowID       `json:"id"`
		SessionID   SessionID        `json:"session_id"`
		Query       string           `json:"query"`
		Status      WorkflowStatus   `json:"status"`
		Error       string           `json:"error,omitempty"`
	}
)

const (
	WorkflowPlanning  WorkflowStatus = "planning"
	WorkflowExecuting WorkflowStatus = "executing"
	WorkflowCompleted WorkflowStatus = "completed"
	WorkflowFailed    WorkflowStatus = "failed"
)

// WorkflowTransitions describes the workflow lifecycle
var WorkflowTransitions = util.StateTransitions[WorkflowStatus]{
	WorkflowPlanning: util.SetOf(
		WorkflowExecuting, WorkflowCompleted, WorkflowFailed,
	),
	WorkflowExecuting: util.SetOf(WorkflowCompleted, WorkflowFailed),
	WorkflowCompleted: {},
	WorkflowFailed:    {},
}

// NewWorkflow creates a workflow in the planning state with an empty node
// tree
func NewWorkflow(session SessionID, query string) *Workflow {
	return &Workflow{
		ID:        NewWorkflowID(),
		SessionID: session,
		Query:     query,
		Status:    WorkflowPlanning,
		Nodes:     map[NodeID]*Node{},
		CreatedAt: time.Now().UTC(),
	}
}

// Clone returns a copy of the workflow that shares no mutable state with
// the original
func (w *Workflow) Clone() *Workflow {
	if w == nil {
		return nil
	}
	res := *w
	res.CompletedAt = cloneTime(w.CompletedAt)
	res.Nodes = make(map[NodeID]*Node, len(w.Nodes))
	for id, n := range w.Nodes {
		res.Nodes[id] = n.Clone()
	}
	return &res
}

// SetNode inserts or replaces a node at its own ID
func (w *Workflow) SetNode(n *Node) {
	if w.Nodes == nil {
		w.Nodes = map[NodeID]*Node{}
	}
	w.Nodes[n.ID] = n
}

// Complete moves the workflow to a terminal status and stamps its
// completion time. A non-empty errText is recorded on the workflow
func (w *Workflow) Complete(status WorkflowStatus, errText string) {
	now := time.Now().UTC()
	w.Status = status
	w.CompletedAt = &now
	if errText != "" {
		w.Error = errText
	}
}

// IsTerminal returns whether the workflow has finished
func (w *Workflow) IsTerminal() bool {
	return WorkflowTransitions.IsTerminal(w.Status)
}

// NodesOf returns the nodes of the given type and status, ordered by
// creation time and then by ID
func (w *Workflow) NodesOf(typ NodeType, status NodeStatus) []*Node {
	var res []*Node
	for _, n := range w.Nodes {
		if n.Type == typ && n.Status == status {
			res = append(res, n)
		}
	}
	SortNodes(res)
	return res
}

// Digest summarizes the workflow for list responses
func (w *Workflow) Digest() *WorkflowDigest {
	return &WorkflowDigest{
		ID:          w.ID,
		SessionID:   w.SessionID,
		Query:       w.Query,
		Status:      w.Status,
		NodeCount:   len(w.Nodes),
		CreatedAt:   w.CreatedAt,
		CompletedAt: cloneTime(w.CompletedAt),
		Error:       w.Error,
	}
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	res := *t
	return &res
}

// cloneMap copies m and every nested map or slice it holds, so the copy
// shares no mutable state with the original
func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	res := make(map[string]any, len(m))
	for k, v := range m {
		res[k] = cloneValue(v)
	}
	return res
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return cloneMap(v)
	case []any:
		if v == nil {
			return v
		}
		res := make([]any, len(v))
		for i, e := range v {
			res[i] = cloneValue(e)
		}
		return res
	case []map[string]any:
		if v == nil {
			return v
		}
		res := make([]map[string]any, len(v))
		for i, e := range v {
			res[i] = cloneMap(e)
		}
		return res
	default:
		return v
	}
}
