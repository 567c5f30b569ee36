package orchestrator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/abdulateeb/Agentic-Chat/internal/model"
	"github.com/abdulateeb/Agentic-Chat/pkg/api"
	"github.com/abdulateeb/Agentic-Chat/pkg/log"
)

// synthesisPhase turns every completed tool result in the workflow into a
// final answer. Its outcome decides the workflow's terminal status
func (o *Orchestrator) synthesisPhase(ctx context.Context, query string) error {
	bg := context.WithoutCancel(ctx)

	n, err := o.nodes.CreateNode(bg, SynthesisLabel, api.NodeSynthesis,
		o.root, map[string]any{"description": synthesisDescription},
	)
	if err != nil {
		return err
	}
	if err := o.nodes.UpdateNodeStatus(bg, n, api.NodeProcessing, ""); err != nil {
		return err
	}

	answer, err := o.synthesize(ctx, query)
	if err != nil {
		msg := fmt.Sprintf("Failed during synthesis phase: %v", err)
		slog.Error("Synthesis failed",
			log.WorkflowID(o.workflow),
			log.ErrorString(msg))

		if err := o.nodes.UpdateNodeStatus(bg, n, api.NodeFailed, msg); err != nil {
			return err
		}
		cerr := o.nodes.AddCommentary(bg, TitleSynthesisFailed, msg,
			api.SeverityError,
		)
		o.finish(bg, api.WorkflowFailed, msg)
		return cerr
	}

	n.Data.Output = map[string]any{"final_answer": answer}
	if err := o.nodes.UpdateNodeStatus(bg, n, api.NodeCompleted, ""); err != nil {
		return err
	}
	err = o.nodes.AddCommentary(bg, TitleFinalAnswer, answer,
		api.SeveritySuccess,
	)
	o.finish(bg, api.WorkflowCompleted, "")
	return err
}

func (o *Orchestrator) synthesize(
	ctx context.Context, query string,
) (string, error) {
	wf, err := o.state.GetWorkflow(context.WithoutCancel(ctx), o.workflow)
	if err != nil {
		return "", err
	}

	completed := wf.NodesOf(api.NodeTool, api.NodeCompleted)
	if len(completed) == 0 {
		return NoDataAnswer, nil
	}

	findings := make([]model.Finding, 0, len(completed))
	for _, n := range completed {
		findings = append(findings, model.Finding{
			Step:   n.Label,
			Result: n.Data.Output,
		})
	}

	mctx, cancel := withTimeout(ctx, o.config.ModelTimeout)
	defer cancel()
	return o.model.GenerateSynthesis(
		mctx, model.SynthesizerPrompt(query, findings),
	)
}
