package assert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdulateeb/Agentic-Chat/internal/config"
	"github.com/abdulateeb/Agentic-Chat/pkg/api"
)

// Wrapper wraps testify assertions with workflow-specific helpers
type Wrapper struct {
	*testing.T
	*assert.Assertions
	Require *require.Assertions
}

// DefaultRetryInterval is the default polling interval for Eventually checks
const DefaultRetryInterval = 10 * time.Millisecond

// New creates a new test assertion wrapper with both assert and require from
// testify plus workflow-specific helpers
func New(t *testing.T) *Wrapper {
	return &Wrapper{
		T:          t,
		Assertions: assert.New(t),
		Require:    require.New(t),
	}
}

// WorkflowStatus asserts the status of a workflow
func (w *Wrapper) WorkflowStatus(
	wf *api.Workflow, expected api.WorkflowStatus,
) {
	w.Helper()
	w.Equal(expected, wf.Status)
}

// AllNodesTerminal asserts that no node of the workflow is still waiting
// or processing
func (w *Wrapper) AllNodesTerminal(wf *api.Workflow) {
	w.Helper()
	for id, n := range wf.Nodes {
		w.True(n.IsTerminal(), "node %s is %s", id, n.Status)
	}
}

// NodeStatus asserts the status of a single node and, when given, its
// error text
func (w *Wrapper) NodeStatus(
	n *api.Node, expected api.NodeStatus, errText ...string,
) {
	w.Helper()
	if !w.NotNil(n) {
		return
	}
	w.Equal(expected, n.Status)
	for _, e := range errText {
		if w.NotNil(n.Data) {
			w.Equal(e, n.Data.Error)
		}
	}
}

// ConfigValid asserts that a configuration is valid
func (w *Wrapper) ConfigValid(cfg *config.Config) {
	w.Helper()
	w.NoError(cfg.Validate())
	w.True(cfg.APIPort > 0 && cfg.APIPort <= config.MaxTCPPort)
	w.True(cfg.ModelTimeout > 0)
	w.True(cfg.ToolTimeout > 0)
}

// ConfigInvalid asserts that a configuration is invalid
func (w *Wrapper) ConfigInvalid(cfg *config.Config, contains string) {
	w.Helper()
	err := cfg.Validate()
	if !w.Error(err) {
		return
	}
	if contains != "" {
		w.Contains(err.Error(), contains)
	}
}

// Eventually runs a condition repeatedly until it passes or times out
func (w *Wrapper) Eventually(
	condition func() bool, timeout time.Duration, msg string, args ...any,
) {
	w.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(DefaultRetryInterval)
	}
	w.Fail(msg, args...)
}

// EventuallyWithError runs a condition that returns an error until it succeeds
// or times out
func (w *Wrapper) EventuallyWithError(
	condition func() error, timeout time.Duration, msg string, args ...any,
) {
	w.Helper()
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		err := condition()
		if err == nil {
			return
		}
		lastErr = err
		time.Sleep(DefaultRetryInterval)
	}
	if lastErr != nil {
		w.Fail(msg+": last error: "+lastErr.Error(), args...)
		return
	}
	w.Fail(msg, args...)
}
