package wait_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdulateeb/Agentic-Chat/internal/assert/helpers"
	"github.com/abdulateeb/Agentic-Chat/internal/assert/wait"
	"github.com/abdulateeb/Agentic-Chat/internal/orchestrator"
	"github.com/abdulateeb/Agentic-Chat/pkg/api"
)

func send(t *testing.T, conn *helpers.MockConn, ev *api.Event) {
	t.Helper()
	data, err := json.Marshal(ev)
	require.NoError(t, err)
	require.NoError(t, conn.Send(context.Background(), data))
}

func TestForEventsAlreadyReceived(t *testing.T) {
	conn := helpers.NewMockConn()
	send(t, conn, api.CommentaryEvent(api.Commentary{Title: "one"}))
	send(t, conn, api.CommentaryEvent(api.Commentary{Title: "two"}))

	evs := wait.On(t, conn).ForEvents(2, wait.Type(api.EventCommentary))
	assert.Len(t, evs, 2)
}

func TestForEventArrivesLater(t *testing.T) {
	conn := helpers.NewMockConn()
	go func() {
		time.Sleep(20 * time.Millisecond)
		n := api.NewNode("Step", api.NodeTool, "", nil)
		n.SetStatus(api.NodeCompleted, "")
		data, _ := json.Marshal(api.NodeEvent(n))
		_ = conn.Send(context.Background(), data)
	}()

	ev := wait.On(t, conn).WithTimeout(time.Second).ForEvent(
		wait.NodeStatus("Step", api.NodeCompleted),
	)
	n, ok := ev.Node()
	require.True(t, ok)
	assert.Equal(t, api.NodeCompleted, n.Status)
}

func TestFilters(t *testing.T) {
	done := api.NewNode("a", api.NodeTool, "", nil)
	done.SetStatus(api.NodeCompleted, "")
	waiting := api.NewNode("b", api.NodeTool, "", nil)

	conn := helpers.NewMockConn()
	send(t, conn, api.NodeEvent(waiting))
	send(t, conn, api.NodeEvent(done))
	send(t, conn, api.CommentaryEvent(api.Commentary{
		Title: orchestrator.TitleFinalAnswer,
	}))
	send(t, conn, api.ErrorEvent(api.ErrorDetail{Message: "boom"}))
	evs := conn.Events()

	assert.Len(t, wait.Matching(evs, wait.NodeTerminal()), 1)
	assert.Len(t, wait.Matching(evs, wait.Finished()), 1)
	assert.Len(t, wait.Matching(evs, wait.Types()), 0)
	assert.Len(t, wait.Matching(evs,
		wait.Types(api.EventNode, api.EventError)), 3)
	assert.Len(t, wait.Matching(evs, wait.And(
		wait.Type(api.EventNode), wait.NodeStatus("b", api.NodeWaiting),
	)), 1)
	assert.Empty(t, wait.Matching(evs, wait.Commentary("missing")))
}
