package api

import (
	"cmp"
	"encoding/json"
	"slices"
	"time"

	"github.com/abdulateeb/Agentic-Chat/pkg/util"
)

type (
	// NodeType is the functional role of a node in the graph
	NodeType string

	// NodeStatus represents the execution state of a node
	NodeStatus string

	// Node is one unit of work within a workflow
	Node struct {
		CreatedAt   time.Time  `json:"created_at"`
		StartedAt   *time.Time `json:"started_at"`
		CompletedAt *time.Time `json:"completed_at"`
		Data        *NodeData  `json:"data"`
		ID          NodeID     `json:"id"`
		Label       string     `json:"label"`
		Type        NodeType   `json:"type"`
		Status      NodeStatus `json:"status"`
		ParentID    NodeID     `json:"parent_id,omitempty"`
	}

	// NodeData is the open payload of a node. Keys other than the known
	// ones are preserved in Extra and round-trip through JSON
	NodeData struct {
		Description map[string]any `json:"description"`
		Input       map[string]any `json:"input"`
		Output      map[string]any `json:"output"`
		Extra       map[string]any `json:"-"`
		Error       string         `json:"error,omitempty"`
	}

	// ToolCall is the tool request carried in a node description
	ToolCall struct {
		Parameters map[string]any `json:"parameters"`
		Name       string         `json:"tool_name"`
	}

	nodeDataFields struct {
		Description map[string]any `json:"description"`
		Input       map[string]any `json:"input"`
		Output      map[string]any `json:"output"`
		Error       string         `json:"error,omitempty"`
	}
)

const (
	NodeQuery        NodeType = "query"
	NodeOrchestrator NodeType = "orchestrator"
	NodeAnalyzer     NodeType = "analyzer"
	NodeTool         NodeType = "tool"
	NodeResult       NodeType = "result"
	NodeDecision     NodeType = "decision"
	NodeSynthesis    NodeType = "synthesis"
)

const (
	NodeWaiting    NodeStatus = "waiting"
	NodeProcessing NodeStatus = "processing"
	NodeCompleted  NodeStatus = "completed"
	NodeFailed     NodeStatus = "failed"
)

const (
	DescriptionText = "text"
	ToolNameKey     = "tool_name"
	ParametersKey   = "parameters"
)

// NodeTransitions describes the node lifecycle
var NodeTransitions = util.StateTransitions[NodeStatus]{
	NodeWaiting:    util.SetOf(NodeProcessing, NodeFailed),
	NodeProcessing: util.SetOf(NodeCompleted, NodeFailed),
	NodeCompleted:  {},
	NodeFailed:     {},
}

var nodeDataKeys = util.SetOf("description", "input", "output", "error")

// NewNode creates a node in the waiting state
func NewNode(label string, typ NodeType, parent NodeID, data *NodeData) *Node {
	if data == nil {
		data = &NodeData{}
	}
	return &Node{
		ID:        NewNodeID(),
		Label:     label,
		Type:      typ,
		Status:    NodeWaiting,
		ParentID:  parent,
		CreatedAt: time.Now().UTC(),
		Data:      data,
	}
}

// NewNodeData builds node data from a creation payload. The full payload
// becomes the node input. A map description is used as is, a string
// description is wrapped under the "text" key, and tool metadata found at
// the top of the payload is carried into the description
func NewNodeData(payload map[string]any) *NodeData {
	desc := map[string]any{}
	switch d := payload["description"].(type) {
	case map[string]any:
		desc = cloneMap(d)
	case string:
		desc[DescriptionText] = d
	}
	for _, key := range []string{ToolNameKey, ParametersKey} {
		if v, ok := payload[key]; ok {
			if _, exists := desc[key]; !exists {
				desc[key] = cloneValue(v)
			}
		}
	}
	input := cloneMap(payload)
	if input == nil {
		input = map[string]any{}
	}
	return &NodeData{
		Description: desc,
		Input:       input,
		Output:      map[string]any{},
	}
}

// Clone returns a copy of the node whose data maps are independent of the
// original
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	res := *n
	res.StartedAt = cloneTime(n.StartedAt)
	res.CompletedAt = cloneTime(n.CompletedAt)
	res.Data = n.Data.Clone()
	return &res
}

// SetStatus applies a status change, stamping StartedAt when processing
// begins and CompletedAt when a terminal status is reached. A non-empty
// errText is recorded on the node data
func (n *Node) SetStatus(status NodeStatus, errText string) {
	now := time.Now().UTC()
	n.Status = status
	if status == NodeProcessing && n.StartedAt == nil {
		n.StartedAt = &now
	}
	if NodeTransitions.IsTerminal(status) {
		n.CompletedAt = &now
	}
	if errText != "" {
		if n.Data == nil {
			n.Data = &NodeData{}
		}
		n.Data.Error = errText
	}
}

// IsTerminal returns whether the node has finished
func (n *Node) IsTerminal() bool {
	return NodeTransitions.IsTerminal(n.Status)
}

// SortNodes orders nodes by creation time and then by ID
func SortNodes(nodes []*Node) {
	slices.SortStableFunc(nodes, func(a, b *Node) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// Clone returns a copy of the node data with its maps cloned
func (d *NodeData) Clone() *NodeData {
	if d == nil {
		return nil
	}
	return &NodeData{
		Description: cloneMap(d.Description),
		Input:       cloneMap(d.Input),
		Output:      cloneMap(d.Output),
		Extra:       cloneMap(d.Extra),
		Error:       d.Error,
	}
}

// ToolCall extracts the tool request from the description. The name is
// empty when the description carries no usable tool name
func (d *NodeData) ToolCall() ToolCall {
	if d == nil {
		return ToolCall{}
	}
	var res ToolCall
	if name, ok := d.Description[ToolNameKey].(string); ok {
		res.Name = name
	}
	if params, ok := d.Description[ParametersKey].(map[string]any); ok {
		res.Parameters = params
	}
	return res
}

// MarshalJSON flattens Extra alongside the known fields
func (d NodeData) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(nodeDataFields{
		Description: emptyIfNil(d.Description),
		Input:       emptyIfNil(d.Input),
		Output:      emptyIfNil(d.Output),
		Error:       d.Error,
	})
	if err != nil || len(d.Extra) == 0 {
		return known, err
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(known, &merged); err != nil {
		return nil, err
	}
	for k, v := range d.Extra {
		if nodeDataKeys.Contains(k) {
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		merged[k] = raw
	}
	return json.Marshal(merged)
}

// UnmarshalJSON decodes the known fields and keeps every other key in
// Extra
func (d *NodeData) UnmarshalJSON(data []byte) error {
	var known nodeDataFields
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}

	*d = NodeData{
		Description: known.Description,
		Input:       known.Input,
		Output:      known.Output,
		Error:       known.Error,
	}
	for k, v := range all {
		if nodeDataKeys.Contains(k) {
			continue
		}
		if d.Extra == nil {
			d.Extra = map[string]any{}
		}
		d.Extra[k] = v
	}
	return nil
}

func emptyIfNil(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
