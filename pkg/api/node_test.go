package api_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdulateeb/Agentic-Chat/pkg/api"
)

func TestNewNode(t *testing.T) {
	n := api.NewNode("Planning", api.NodeOrchestrator, "", nil)

	assert.True(t, strings.HasPrefix(string(n.ID), "node-"))
	assert.Len(t, string(n.ID), len("node-")+8)
	assert.Equal(t, api.NodeWaiting, n.Status)
	assert.Equal(t, api.NodeOrchestrator, n.Type)
	assert.NotNil(t, n.Data)
	assert.Nil(t, n.StartedAt)
	assert.Nil(t, n.CompletedAt)
	assert.False(t, n.CreatedAt.IsZero())
}

func TestNewNodeIDsUnique(t *testing.T) {
	seen := map[api.NodeID]bool{}
	for range 100 {
		id := api.NewNodeID()
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestNewNodeDataStringDescription(t *testing.T) {
	payload := map[string]any{
		"description": "Fetch latency",
		"tool_name":   "metrics_tool",
		"parameters":  map[string]any{"service": "checkout"},
	}
	d := api.NewNodeData(payload)

	assert.Equal(t, "Fetch latency", d.Description["text"])
	assert.Equal(t, "metrics_tool", d.Description["tool_name"])
	assert.Equal(t, payload, d.Input)
	assert.Empty(t, d.Output)

	call := d.ToolCall()
	assert.Equal(t, "metrics_tool", call.Name)
	assert.Equal(t, map[string]any{"service": "checkout"}, call.Parameters)
}

func TestNewNodeDataMapDescription(t *testing.T) {
	d := api.NewNodeData(map[string]any{
		"description": map[string]any{
			"text":      "Look at logs",
			"tool_name": "logs_tool",
		},
	})

	call := d.ToolCall()
	assert.Equal(t, "logs_tool", call.Name)
	assert.Nil(t, call.Parameters)
}

func TestNewNodeDataMissingToolName(t *testing.T) {
	d := api.NewNodeData(map[string]any{"description": "nothing to run"})
	assert.Empty(t, d.ToolCall().Name)

	d = api.NewNodeData(nil)
	assert.Empty(t, d.ToolCall().Name)
	assert.NotNil(t, d.Input)
}

func TestNodeSetStatus(t *testing.T) {
	n := api.NewNode("Step", api.NodeTool, "", api.NewNodeData(nil))

	n.SetStatus(api.NodeProcessing, "")
	require.NotNil(t, n.StartedAt)
	assert.Nil(t, n.CompletedAt)
	assert.False(t, n.IsTerminal())

	n.SetStatus(api.NodeFailed, "boom")
	require.NotNil(t, n.CompletedAt)
	assert.Equal(t, "boom", n.Data.Error)
	assert.True(t, n.IsTerminal())

	n.SetStatus(api.NodeFailed, "")
	assert.Equal(t, "boom", n.Data.Error)
}

func TestNodeTransitions(t *testing.T) {
	tr := api.NodeTransitions
	assert.True(t, tr.CanTransition(api.NodeWaiting, api.NodeProcessing))
	assert.True(t, tr.CanTransition(api.NodeWaiting, api.NodeFailed))
	assert.True(t, tr.CanTransition(api.NodeProcessing, api.NodeCompleted))
	assert.False(t, tr.CanTransition(api.NodeCompleted, api.NodeProcessing))
	assert.False(t, tr.CanTransition(api.NodeWaiting, api.NodeCompleted))
}

func TestNodeCloneIsolation(t *testing.T) {
	n := api.NewNode("Step", api.NodeTool, "", api.NewNodeData(
		map[string]any{"description": "x"},
	))
	c := n.Clone()

	c.Status = api.NodeCompleted
	c.Data.Output["answer"] = 42
	c.Data.Error = "changed"

	assert.Equal(t, api.NodeWaiting, n.Status)
	assert.Empty(t, n.Data.Output)
	assert.Empty(t, n.Data.Error)
}

func TestNodeCloneNestedIsolation(t *testing.T) {
	n := api.NewNode("Step", api.NodeTool, "", api.NewNodeData(
		map[string]any{
			"tool_name":  "metrics_tool",
			"parameters": map[string]any{"service": "checkout"},
			"tags":       []any{"a", map[string]any{"k": "v"}},
		},
	))
	c := n.Clone()

	c.Data.Description["parameters"].(map[string]any)["service"] = "cart"
	c.Data.Input["parameters"].(map[string]any)["service"] = "cart"
	tags := c.Data.Input["tags"].([]any)
	tags[0] = "b"
	tags[1].(map[string]any)["k"] = "changed"

	assert.Equal(t, map[string]any{"service": "checkout"},
		n.Data.Description["parameters"])
	assert.Equal(t, map[string]any{"service": "checkout"},
		n.Data.Input["parameters"])
	assert.Equal(t, []any{"a", map[string]any{"k": "v"}},
		n.Data.Input["tags"])
}

func TestNodeDataExtraRoundTrip(t *testing.T) {
	raw := `{
		"description": {"text": "x"},
		"input": {},
		"output": {"final_answer": "done"},
		"confidence": 0.9,
		"tags": ["a", "b"]
	}`

	var d api.NodeData
	require.NoError(t, json.Unmarshal([]byte(raw), &d))
	assert.Equal(t, "done", d.Output["final_answer"])
	assert.Equal(t, 0.9, d.Extra["confidence"])

	out, err := json.Marshal(d)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(out, &got))
	assert.Equal(t, 0.9, got["confidence"])
	assert.Equal(t, []any{"a", "b"}, got["tags"])
	assert.NotContains(t, got, "error")
}

func TestNodeDataEmptyMapsEncodeAsObjects(t *testing.T) {
	out, err := json.Marshal(api.NodeData{Error: "bad"})
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"description":{},"input":{},"output":{},"error":"bad"}`,
		string(out),
	)
}
