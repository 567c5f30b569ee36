package assert

import (
	"errors"
	"testing"
	"time"

	"github.com/abdulateeb/Agentic-Chat/internal/assert/helpers"
	"github.com/abdulateeb/Agentic-Chat/internal/config"
	"github.com/abdulateeb/Agentic-Chat/pkg/api"
)

func TestNew(t *testing.T) {
	wrapper := New(t)

	if wrapper.T != t {
		t.Error("Wrapper.T should be set to the testing.T instance")
	}
	if wrapper.Assertions == nil {
		t.Error("Wrapper.Assertions should be initialized")
	}
	if wrapper.Require == nil {
		t.Error("Wrapper.Require should be initialized")
	}
}

func TestWorkflowStatus(t *testing.T) {
	w := New(t)
	wf := api.NewWorkflow("sess-1", "query")
	w.WorkflowStatus(wf, api.WorkflowPlanning)

	wf.Complete(api.WorkflowCompleted, "")
	w.WorkflowStatus(wf, api.WorkflowCompleted)
}

func TestAllNodesTerminal(t *testing.T) {
	w := New(t)
	wf := api.NewWorkflow("sess-1", "query")

	done := api.NewNode("done", api.NodeTool, "", nil)
	done.SetStatus(api.NodeCompleted, "")
	failed := api.NewNode("failed", api.NodeTool, "", nil)
	failed.SetStatus(api.NodeFailed, "boom")
	wf.SetNode(done)
	wf.SetNode(failed)

	w.AllNodesTerminal(wf)
	w.NodeStatus(failed, api.NodeFailed, "boom")
	w.NodeStatus(done, api.NodeCompleted)
}

func TestConfigValid(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*config.Config)
	}{
		{
			name: "test config is valid",
			mod:  func(*config.Config) {},
		},
		{
			name: "minimum valid port",
			mod:  func(c *config.Config) { c.APIPort = 1 },
		},
		{
			name: "maximum valid port",
			mod:  func(c *config.Config) { c.APIPort = 65535 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := helpers.NewTestConfig()
			tt.mod(cfg)
			New(t).ConfigValid(cfg)
		})
	}
}

func TestConfigInvalid(t *testing.T) {
	tests := []struct {
		name     string
		mod      func(*config.Config)
		contains string
	}{
		{
			name:     "invalid port zero",
			mod:      func(c *config.Config) { c.APIPort = 0 },
			contains: "port",
		},
		{
			name:     "invalid port too large",
			mod:      func(c *config.Config) { c.APIPort = 65536 },
			contains: "port",
		},
		{
			name:     "zero tool timeout",
			mod:      func(c *config.Config) { c.ToolTimeout = 0 },
			contains: "timeout",
		},
		{
			name:     "missing model key",
			mod:      func(c *config.Config) { c.GeminiAPIKey = "" },
			contains: "GEMINI_API_KEY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := helpers.NewTestConfig()
			tt.mod(cfg)
			New(t).ConfigInvalid(cfg, tt.contains)
		})
	}
}

func TestEventually(t *testing.T) {
	tests := []struct {
		name      string
		condition func() bool
	}{
		{
			name:      "condition passes immediately",
			condition: func() bool { return true },
		},
		{
			name: "condition passes after retries",
			condition: func() func() bool {
				attempts := 0
				return func() bool {
					attempts++
					return attempts >= 3
				}
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := New(t)
			w.Eventually(tt.condition, time.Second, "condition should pass")
		})
	}
}

func TestEventuallyWithError(t *testing.T) {
	attempts := 0
	w := New(t)
	w.EventuallyWithError(func() error {
		attempts++
		if attempts >= 3 {
			return nil
		}
		return errors.New("not ready yet")
	}, time.Second, "condition should succeed")
}
