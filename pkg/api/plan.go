package api

import (
	"cmp"
	"encoding/json"
	"slices"
)

type (
	// PlanResponse is the planner's answer to a query: either a direct
	// answer or a set of steps with declared edges
	PlanResponse struct {
		DirectAnswer *string    `json:"direct_answer,omitempty"`
		Nodes        []PlanStep `json:"nodes,omitempty"`
		Edges        []PlanEdge `json:"edges,omitempty"`
	}

	// PlanStep is one step proposed by the planner. ID is only meaningful
	// within the plan and orders execution
	PlanStep struct {
		Data  map[string]any `json:"data,omitempty"`
		ID    string         `json:"id"`
		Label string         `json:"label,omitempty"`
		Type  NodeType       `json:"type,omitempty"`
	}

	// PlanEdge is a declared dependency between two plan steps. Edges are
	// kept for display but do not affect execution order
	PlanEdge struct {
		From string `json:"from"`
		To   string `json:"to"`
	}

	// ToolResult is the outcome of one tool execution
	ToolResult struct {
		Output any    `json:"output"`
		Status string `json:"status"`
		Error  string `json:"error,omitempty"`
	}
)

const (
	ToolSuccess = "success"
	ToolFailure = "failure"

	// DefaultStepLabel is used for plan steps that arrive without a label
	DefaultStepLabel = "Step"
)

// IsDirectAnswer returns whether the planner answered without a plan
func (p *PlanResponse) IsDirectAnswer() bool {
	return p != nil && p.DirectAnswer != nil
}

// HasSteps returns whether the plan contains anything to execute
func (p *PlanResponse) HasSteps() bool {
	return p != nil && len(p.Nodes) > 0
}

// OrderedSteps returns the plan steps in ascending ID order. Steps that
// share an ID keep their original relative order
func (p *PlanResponse) OrderedSteps() []PlanStep {
	res := slices.Clone(p.Nodes)
	slices.SortStableFunc(res, func(a, b PlanStep) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return res
}

// DisplayLabel returns the step label or the default label when empty
func (s PlanStep) DisplayLabel() string {
	if s.Label == "" {
		return DefaultStepLabel
	}
	return s.Label
}

// Succeeded returns whether the tool reported success
func (r *ToolResult) Succeeded() bool {
	return r != nil && r.Status == ToolSuccess
}

// FailureText renders the tool output for use as a node error. String
// outputs are used verbatim and other values are encoded as JSON
func (r *ToolResult) FailureText() string {
	if r.Output == nil && r.Error != "" {
		return r.Error
	}
	if s, ok := r.Output.(string); ok {
		return s
	}
	b, err := json.Marshal(r.Output)
	if err != nil {
		return r.Error
	}
	return string(b)
}

// AsMap returns the raw result as stored in a node output
func (r *ToolResult) AsMap() map[string]any {
	res := map[string]any{
		"status": r.Status,
		"output": r.Output,
	}
	if r.Error != "" {
		res["error"] = r.Error
	}
	return res
}
