package orchestrator

import (
	"cmp"
	"context"
	"log/slog"
	"slices"

	"github.com/abdulateeb/Agentic-Chat/pkg/api"
	"github.com/abdulateeb/Agentic-Chat/pkg/log"
)

type pendingStep struct {
	node   *api.Node
	planID string
}

// executionPhase creates a waiting tool node for every plan step, then runs
// the steps one at a time in ascending plan ID order. Declared edges do not
// affect the order, and a failing step never stops the ones after it
func (o *Orchestrator) executionPhase(
	ctx context.Context, plan *api.PlanResponse,
) error {
	bg := context.WithoutCancel(ctx)

	if err := o.setStatus(bg, api.WorkflowExecuting); err != nil {
		return err
	}
	err := o.nodes.AddCommentary(bg, TitleExecutionStarted,
		"Beginning execution of planned steps.", api.SeverityInfo,
	)
	if err != nil {
		return err
	}

	pending := make([]pendingStep, 0, len(plan.Nodes))
	for _, step := range plan.Nodes {
		n, err := o.nodes.CreateNode(bg,
			step.DisplayLabel(), api.NodeTool, o.root, step.Data,
		)
		if err != nil {
			return err
		}
		pending = append(pending, pendingStep{node: n, planID: step.ID})
	}

	slices.SortStableFunc(pending, func(a, b pendingStep) int {
		return cmp.Compare(a.planID, b.planID)
	})

	for _, p := range pending {
		if err := o.executeStep(ctx, p.node); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) executeStep(ctx context.Context, n *api.Node) error {
	bg := context.WithoutCancel(ctx)

	if err := o.nodes.UpdateNodeStatus(bg, n, api.NodeProcessing, ""); err != nil {
		return err
	}

	call := n.Data.ToolCall()
	if call.Name == "" {
		return o.nodes.UpdateNodeStatus(bg, n, api.NodeFailed, ToolNameMissing)
	}

	tctx, cancel := withTimeout(ctx, o.config.ToolTimeout)
	res, err := o.tools.Execute(tctx, call.Name, call.Parameters)
	cancel()

	if err != nil {
		slog.Warn("Tool execution failed",
			log.WorkflowID(o.workflow),
			log.NodeID(n.ID),
			log.Tool(call.Name),
			log.Error(err))
		return o.nodes.UpdateNodeStatus(bg, n, api.NodeFailed, err.Error())
	}

	n.Data.Output = res.AsMap()
	if res.Succeeded() {
		return o.nodes.UpdateNodeStatus(bg, n, api.NodeCompleted, "")
	}
	return o.nodes.UpdateNodeStatus(bg, n, api.NodeFailed, res.FailureText())
}
