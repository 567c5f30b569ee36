package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/abdulateeb/Agentic-Chat/internal/model"
	"github.com/abdulateeb/Agentic-Chat/internal/nodes"
	"github.com/abdulateeb/Agentic-Chat/internal/state"
	"github.com/abdulateeb/Agentic-Chat/internal/tools"
	"github.com/abdulateeb/Agentic-Chat/pkg/api"
	"github.com/abdulateeb/Agentic-Chat/pkg/log"
)

type (
	// Dependencies are the collaborators an orchestrator needs
	Dependencies struct {
		State       *state.Manager
		Broadcaster nodes.Broadcaster
		Model       model.Client
		Tools       tools.Executor
	}

	// Config bounds the external calls made during a run. Zero disables
	// the corresponding deadline
	Config struct {
		ModelTimeout time.Duration
		ToolTimeout  time.Duration
	}

	// Orchestrator drives one workflow through planning, execution and
	// synthesis
	Orchestrator struct {
		state    *state.Manager
		nodes    *nodes.Manager
		model    model.Client
		tools    tools.Executor
		config   Config
		workflow api.WorkflowID
		root     api.NodeID
	}
)

const (
	PlanningLabel  = "Planning"
	SynthesisLabel = "Synthesize Final Answer"

	ToolNameMissing = "Tool name missing in plan."
	NoDataAnswer    = "I was unable to gather any data to answer the query."

	TitlePlanningStarted  = "Planning Started"
	TitleDirectAnswer     = "Direct Answer Provided"
	TitlePlanningComplete = "Planning Complete"
	TitlePlanningSkipped  = "Planning Skipped"
	TitleExecutionStarted = "Execution Started"
	TitleFinalAnswer      = "Final Answer Generated"
	TitleSynthesisFailed  = "Synthesis Failed"
	TitleWorkflowFailed   = "Workflow Failed"

	planningDescription  = "Contacting the model to analyze the query."
	synthesisDescription = "Combining all collected data into a final response."
)

var (
	ErrPanic             = errors.New("orchestration panicked")
	ErrMissingDependency = errors.New("missing orchestrator dependency")
)

// New creates an orchestrator for a workflow
func New(
	workflow api.WorkflowID, deps Dependencies, cfg Config,
) (*Orchestrator, error) {
	switch {
	case deps.State == nil:
		return nil, fmt.Errorf("%w: state", ErrMissingDependency)
	case deps.Broadcaster == nil:
		return nil, fmt.Errorf("%w: broadcaster", ErrMissingDependency)
	case deps.Model == nil:
		return nil, fmt.Errorf("%w: model", ErrMissingDependency)
	case deps.Tools == nil:
		return nil, fmt.Errorf("%w: tools", ErrMissingDependency)
	}

	return &Orchestrator{
		state:    deps.State,
		nodes:    nodes.NewManager(deps.State, deps.Broadcaster, workflow),
		model:    deps.Model,
		tools:    deps.Tools,
		config:   cfg,
		workflow: workflow,
	}, nil
}

// Run executes the workflow to completion. Phase failures are recorded on
// nodes and absorbed. Anything else, including a panic, is reported once to
// subscribers, marks the workflow failed, and is returned. Cancelling ctx
// aborts in-flight model and tool calls, but node bookkeeping still runs so
// every created node reaches a terminal status
func (o *Orchestrator) Run(ctx context.Context) error {
	release, err := o.state.Claim(o.workflow)
	if err != nil {
		slog.Warn("Workflow run rejected",
			log.WorkflowID(o.workflow),
			log.Error(err))
		return err
	}
	return o.RunClaimed(ctx, release)
}

// RunClaimed is Run for a caller that already holds the workflow's claim.
// release is called once the outcome is recorded
func (o *Orchestrator) RunClaimed(ctx context.Context, release func()) error {
	defer release()

	slog.Info("Workflow run started", log.WorkflowID(o.workflow))

	if err := o.guard(ctx); err != nil {
		o.fail(ctx, err)
		return err
	}
	slog.Info("Workflow run finished", log.WorkflowID(o.workflow))
	return nil
}

func (o *Orchestrator) guard(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Workflow panicked",
				log.WorkflowID(o.workflow),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return o.run(ctx)
}

func (o *Orchestrator) run(ctx context.Context) error {
	bg := context.WithoutCancel(ctx)

	wf, err := o.state.GetWorkflow(bg, o.workflow)
	if err != nil {
		return err
	}

	plan, err := o.planningPhase(ctx, wf.Query)
	if err != nil {
		return err
	}

	if plan.HasSteps() {
		if err := o.executionPhase(ctx, plan); err != nil {
			return err
		}
	} else {
		err := o.nodes.AddCommentary(bg, TitlePlanningSkipped,
			"No actionable plan was generated. Attempting direct answer.",
			api.SeverityWarn,
		)
		if err != nil {
			return err
		}
	}

	return o.synthesisPhase(ctx, wf.Query)
}

func (o *Orchestrator) fail(ctx context.Context, cause error) {
	bg := context.WithoutCancel(ctx)
	msg := fmt.Sprintf("An unexpected error occurred: %v", cause)

	slog.Error("Workflow failed",
		log.WorkflowID(o.workflow),
		log.Error(cause))

	o.settle(bg, msg)
	if err := o.nodes.AddCommentary(
		bg, TitleWorkflowFailed, msg, api.SeverityError,
	); err != nil {
		slog.Warn("Failed to report workflow failure", log.Error(err))
	}
	if err := o.nodes.ReportError(bg, msg); err != nil {
		slog.Warn("Failed to report workflow failure", log.Error(err))
	}
	o.finish(bg, api.WorkflowFailed, cause.Error())
}

// settle fails every node the aborted run left waiting or processing
func (o *Orchestrator) settle(ctx context.Context, msg string) {
	wf, err := o.state.GetWorkflow(ctx, o.workflow)
	if err != nil {
		return
	}

	var open []*api.Node
	for _, n := range wf.Nodes {
		if !n.IsTerminal() {
			open = append(open, n)
		}
	}
	api.SortNodes(open)

	for _, n := range open {
		err := o.nodes.UpdateNodeStatus(ctx, n, api.NodeFailed, msg)
		if err != nil {
			slog.Warn("Failed to settle node",
				log.WorkflowID(o.workflow),
				log.NodeID(n.ID),
				log.Error(err))
		}
	}
}

func (o *Orchestrator) finish(
	ctx context.Context, status api.WorkflowStatus, errText string,
) {
	err := o.state.UpdateWorkflow(ctx, o.workflow,
		func(wf *api.Workflow) error {
			wf.Complete(status, errText)
			return nil
		},
	)
	if err != nil {
		slog.Error("Failed to record workflow outcome",
			log.WorkflowID(o.workflow),
			log.Status(status),
			log.Error(err))
	}
}

func (o *Orchestrator) setStatus(
	ctx context.Context, status api.WorkflowStatus,
) error {
	return o.state.UpdateWorkflow(ctx, o.workflow,
		func(wf *api.Workflow) error {
			wf.Status = status
			return nil
		},
	)
}

func withTimeout(
	ctx context.Context, d time.Duration,
) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
