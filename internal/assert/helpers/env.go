package helpers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/abdulateeb/Agentic-Chat/internal/registry"
	"github.com/abdulateeb/Agentic-Chat/internal/state"
	"github.com/abdulateeb/Agentic-Chat/internal/store"
	"github.com/abdulateeb/Agentic-Chat/pkg/api"
)

// TestEnv holds the collaborators shared by workflow tests
type TestEnv struct {
	Store    *store.MemoryStore
	State    *state.Manager
	Registry *registry.Registry
	Model    *MockModel
	Executor *MockExecutor
}

const testSendTimeout = time.Second

// NewTestEnv creates an environment backed by an in-memory store, a fresh
// registry, and scripted model and tool fakes
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	st := store.NewMemoryStore()
	reg := registry.New(testSendTimeout)
	t.Cleanup(reg.CloseAll)

	return &TestEnv{
		Store:    st,
		State:    state.NewManager(st),
		Registry: reg,
		Model:    NewMockModel(),
		Executor: NewMockExecutor(),
	}
}

// NewWorkflow creates a workflow and subscribes a recording connection to
// it under the workflow's own session
func (e *TestEnv) NewWorkflow(
	t *testing.T, query string,
) (*api.Workflow, *MockConn) {
	t.Helper()
	wf, err := e.State.CreateWorkflow(context.Background(), "sess-test", query)
	require.NoError(t, err)

	conn := NewMockConn()
	e.Registry.Connect(conn, wf.SessionID, wf.ID)
	return wf, conn
}

// Workflow fetches the current stored workflow
func (e *TestEnv) Workflow(t *testing.T, id api.WorkflowID) *api.Workflow {
	t.Helper()
	wf, err := e.State.GetWorkflow(context.Background(), id)
	require.NoError(t, err)
	return wf
}

// NodesOfType returns the stored nodes of one type in creation order
func NodesOfType(wf *api.Workflow, typ api.NodeType) []*api.Node {
	var res []*api.Node
	for _, n := range wf.Nodes {
		if n.Type == typ {
			res = append(res, n)
		}
	}
	api.SortNodes(res)
	return res
}
