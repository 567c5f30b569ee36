package log_test

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abdulateeb/Agentic-Chat/pkg/api"
	"github.com/abdulateeb/Agentic-Chat/pkg/log"
)

func TestIDAttrs(t *testing.T) {
	assertAttrEqual(t,
		log.WorkflowID(api.WorkflowID("wf-abc")), "workflow_id", "wf-abc",
	)
	assertAttrEqual(t,
		log.NodeID(api.NodeID("node-1234")), "node_id", "node-1234",
	)
	assertAttrEqual(t,
		log.SessionID(api.SessionID("sess-1")), "session_id", "sess-1",
	)
}

func TestStatus(t *testing.T) {
	attr := log.Status(api.NodeCompleted)
	assertAttrEqual(t, attr, "status", "completed")
}

func TestTool(t *testing.T) {
	assertAttrEqual(t, log.Tool("metrics_tool"), "tool_name", "metrics_tool")
}

func TestError(t *testing.T) {
	assertAttrEqual(t, log.Error(nil), "error", "")
	assertAttrEqual(t, log.Error(errors.New("boom")), "error", "boom")
}

func TestErrorString(t *testing.T) {
	assertAttrEqual(t, log.ErrorString("badness"), "error", "badness")
}

func assertAttrEqual(t *testing.T, attr slog.Attr, key, value string) {
	t.Helper()
	assert.Equal(t, key, attr.Key)
	assert.Equal(t, value, attr.Value.String())
}
