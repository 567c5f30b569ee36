package workflow_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	as "github.com/abdulateeb/Agentic-Chat/internal/assert"
	"github.com/abdulateeb/Agentic-Chat/internal/assert/helpers"
	"github.com/abdulateeb/Agentic-Chat/internal/orchestrator"
	"github.com/abdulateeb/Agentic-Chat/internal/state"
	"github.com/abdulateeb/Agentic-Chat/internal/tools"
	"github.com/abdulateeb/Agentic-Chat/internal/workflow"
	"github.com/abdulateeb/Agentic-Chat/pkg/api"
)

type gatedExecutor struct {
	release chan struct{}
	honor   bool
}

func (e *gatedExecutor) Execute(
	ctx context.Context, _ string, _ map[string]any,
) (*api.ToolResult, error) {
	if e.honor {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-e.release:
		}
	} else {
		<-e.release
	}
	return &api.ToolResult{Status: api.ToolSuccess, Output: "ok"}, nil
}

func newService(
	t *testing.T, env *helpers.TestEnv, exec tools.Executor,
	shutdown time.Duration,
) *workflow.Service {
	t.Helper()
	if exec == nil {
		exec = env.Executor
	}
	return workflow.NewService(orchestrator.Dependencies{
		State:       env.State,
		Broadcaster: env.Registry,
		Model:       env.Model,
		Tools:       exec,
	}, workflow.Config{ShutdownTimeout: shutdown})
}

func waitTerminal(
	w *as.Wrapper, env *helpers.TestEnv, id api.WorkflowID,
) *api.Workflow {
	w.Helper()
	var wf *api.Workflow
	w.Eventually(func() bool {
		got, err := env.State.GetWorkflow(context.Background(), id)
		if err != nil || !got.IsTerminal() || env.State.IsActive(id) {
			return false
		}
		wf = got
		return true
	}, 5*time.Second, "workflow %s did not finish", id)
	return wf
}

func TestStartRunsWorkflow(t *testing.T) {
	w := as.New(t)
	env := helpers.NewTestEnv(t)
	env.Model.SetPlan(&api.PlanResponse{
		Nodes: []api.PlanStep{{
			ID:   "n_1",
			Data: map[string]any{"tool_name": "cpu_usage"},
		}},
	})
	env.Model.SetSynthesis("all good")

	svc := newService(t, env, nil, time.Second)
	defer func() { _ = svc.Stop() }()

	id, err := svc.Start(context.Background(), "sess-1", "check the api")
	w.Require.NoError(err)
	w.True(strings.HasPrefix(string(id), "wf-"))

	wf := waitTerminal(w, env, id)
	w.Require.NotNil(wf)
	w.WorkflowStatus(wf, api.WorkflowCompleted)
	w.Equal(api.SessionID("sess-1"), wf.SessionID)
	w.Equal("check the api", wf.Query)
	w.AllNodesTerminal(wf)
	w.True(env.Executor.WasInvoked("cpu_usage"))
}

func TestStartOutlivesRequestContext(t *testing.T) {
	w := as.New(t)
	env := helpers.NewTestEnv(t)
	env.Model.SetDirectAnswer("hi")

	svc := newService(t, env, nil, time.Second)
	defer func() { _ = svc.Stop() }()

	ctx, cancel := context.WithCancel(context.Background())
	id, err := svc.Start(ctx, "sess-1", "hello")
	cancel()
	w.Require.NoError(err)

	wf := waitTerminal(w, env, id)
	w.Require.NotNil(wf)
	w.WorkflowStatus(wf, api.WorkflowCompleted)
}

func TestStartValidation(t *testing.T) {
	env := helpers.NewTestEnv(t)
	svc := newService(t, env, nil, time.Second)
	defer func() { _ = svc.Stop() }()

	tests := []struct {
		name    string
		session api.SessionID
		query   string
		err     error
	}{
		{"empty query", "sess-1", "", api.ErrQueryRequired},
		{
			"long query", "sess-1",
			strings.Repeat("x", api.MaxQueryLength+1), api.ErrQueryTooLong,
		},
		{"missing session", "", "hello", api.ErrSessionRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := svc.Start(context.Background(), tt.session, tt.query)
			assert.ErrorIs(t, err, tt.err)
			assert.Empty(t, id)
		})
	}

	wfs, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, wfs)
}

func TestStopCancelsRuns(t *testing.T) {
	w := as.New(t)
	env := helpers.NewTestEnv(t)
	env.Model.SetPlan(&api.PlanResponse{
		Nodes: []api.PlanStep{{
			ID:   "n_1",
			Data: map[string]any{"tool_name": "slow"},
		}},
	})

	exec := &gatedExecutor{release: make(chan struct{}), honor: true}
	svc := newService(t, env, exec, 5*time.Second)

	id, err := svc.Start(context.Background(), "sess-1", "query")
	w.Require.NoError(err)
	w.Eventually(func() bool {
		wf, err := env.State.GetWorkflow(context.Background(), id)
		return err == nil && len(wf.NodesOf(api.NodeTool, api.NodeProcessing)) == 1
	}, 5*time.Second, "tool never started")

	w.NoError(svc.Stop())

	wf := env.Workflow(t, id)
	w.True(wf.IsTerminal())
	w.AllNodesTerminal(wf)
	w.False(env.State.IsActive(id))

	_, err = svc.Start(context.Background(), "sess-1", "again")
	w.ErrorIs(err, workflow.ErrStopped)
}

func TestStopTimeout(t *testing.T) {
	w := as.New(t)
	env := helpers.NewTestEnv(t)
	env.Model.SetPlan(&api.PlanResponse{
		Nodes: []api.PlanStep{{
			ID:   "n_1",
			Data: map[string]any{"tool_name": "stuck"},
		}},
	})

	exec := &gatedExecutor{release: make(chan struct{})}
	defer close(exec.release)
	svc := newService(t, env, exec, 20*time.Millisecond)

	id, err := svc.Start(context.Background(), "sess-1", "query")
	w.Require.NoError(err)
	w.Eventually(func() bool {
		return env.State.IsActive(id)
	}, 5*time.Second, "run never started")

	w.ErrorIs(svc.Stop(), workflow.ErrShutdownTimeout)
}

func TestDeleteActiveWorkflow(t *testing.T) {
	w := as.New(t)
	env := helpers.NewTestEnv(t)
	svc := newService(t, env, nil, time.Second)
	defer func() { _ = svc.Stop() }()

	wf, err := env.State.CreateWorkflow(context.Background(), "s", "q")
	w.Require.NoError(err)

	release, err := env.State.Claim(wf.ID)
	w.Require.NoError(err)
	w.ErrorIs(svc.Delete(context.Background(), wf.ID), state.ErrWorkflowActive)

	release()
	w.NoError(svc.Delete(context.Background(), wf.ID))
	_, err = svc.Get(context.Background(), wf.ID)
	w.ErrorIs(err, state.ErrWorkflowNotFound)
	w.ErrorIs(svc.Delete(context.Background(), wf.ID),
		state.ErrWorkflowNotFound)
}

func TestStartedWorkflowCannotBeDeleted(t *testing.T) {
	w := as.New(t)
	env := helpers.NewTestEnv(t)
	env.Model.SetPlan(&api.PlanResponse{
		Nodes: []api.PlanStep{{
			ID:   "n_1",
			Data: map[string]any{"tool_name": "cpu_usage"},
		}},
	})
	exec := &gatedExecutor{release: make(chan struct{})}
	svc := newService(t, env, exec, time.Second)
	defer func() { _ = svc.Stop() }()

	id, err := svc.Start(context.Background(), "sess-1", "q")
	w.Require.NoError(err)
	w.True(env.State.IsActive(id))
	w.ErrorIs(svc.Delete(context.Background(), id), state.ErrWorkflowActive)

	close(exec.release)
	wf := waitTerminal(w, env, id)
	w.Require.NotNil(wf)
	w.WorkflowStatus(wf, api.WorkflowCompleted)

	w.Eventually(func() bool {
		return !env.State.IsActive(id)
	}, time.Second, "claim not released")
	w.NoError(svc.Delete(context.Background(), id))
}

func TestListOrdersByCreation(t *testing.T) {
	w := as.New(t)
	env := helpers.NewTestEnv(t)
	svc := newService(t, env, nil, time.Second)
	defer func() { _ = svc.Stop() }()

	var ids []api.WorkflowID
	for _, q := range []string{"first", "second", "third"} {
		wf, err := env.State.CreateWorkflow(context.Background(), "s", q)
		w.Require.NoError(err)
		ids = append(ids, wf.ID)
		time.Sleep(time.Millisecond)
	}

	wfs, err := svc.List(context.Background())
	w.Require.NoError(err)
	w.Require.Len(wfs, 3)
	for i, wf := range wfs {
		w.Equal(ids[i], wf.ID)
	}
}
