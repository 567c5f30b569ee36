package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/abdulateeb/Agentic-Chat/internal/model"
	"github.com/abdulateeb/Agentic-Chat/pkg/api"
	"github.com/abdulateeb/Agentic-Chat/pkg/log"
)

// planningPhase asks the model how to answer the query. It returns nil when
// there is nothing to execute: a direct answer, or a model connection or
// response failure that has been recorded on the planning node
func (o *Orchestrator) planningPhase(
	ctx context.Context, query string,
) (*api.PlanResponse, error) {
	bg := context.WithoutCancel(ctx)

	err := o.nodes.AddCommentary(bg, TitlePlanningStarted,
		"Generating an execution plan or a direct answer.", api.SeverityInfo,
	)
	if err != nil {
		return nil, err
	}

	planner, err := o.nodes.CreateNode(bg, PlanningLabel,
		api.NodeOrchestrator, "", map[string]any{
			"description": planningDescription,
			"query":       query,
		},
	)
	if err != nil {
		return nil, err
	}
	o.root = planner.ID

	err = o.nodes.UpdateNodeStatus(bg, planner, api.NodeProcessing, "")
	if err != nil {
		return nil, err
	}

	plan, err := o.generatePlan(ctx, query)
	if err != nil {
		if !isModelFailure(err) {
			return nil, err
		}
		msg := fmt.Sprintf(
			"Failed to generate or parse a valid response from the LLM: %v",
			err,
		)
		slog.Error("Planning failed",
			log.WorkflowID(o.workflow),
			log.ErrorString(msg))
		return nil, o.nodes.UpdateNodeStatus(
			bg, planner, api.NodeFailed, msg,
		)
	}

	planner.Data.Output = planOutput(plan)
	err = o.nodes.UpdateNodeStatus(bg, planner, api.NodeCompleted, "")
	if err != nil {
		return nil, err
	}

	if plan.IsDirectAnswer() {
		return nil, o.nodes.AddCommentary(bg, TitleDirectAnswer,
			*plan.DirectAnswer, api.SeveritySuccess,
		)
	}

	return plan, o.nodes.AddCommentary(bg, TitlePlanningComplete,
		fmt.Sprintf("Generated a plan with %d steps.", len(plan.Nodes)),
		api.SeverityInfo,
	)
}

func (o *Orchestrator) generatePlan(
	ctx context.Context, query string,
) (*api.PlanResponse, error) {
	mctx, cancel := withTimeout(ctx, o.config.ModelTimeout)
	defer cancel()

	plan, err := o.model.GeneratePlan(mctx, model.PlannerPrompt(query))
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, fmt.Errorf("%w: no plan returned", model.ErrResponse)
	}
	return plan, nil
}

// isModelFailure reports whether err is one the planning phase absorbs.
// Any other error aborts the run
func isModelFailure(err error) bool {
	return errors.Is(err, model.ErrConnection) ||
		errors.Is(err, model.ErrResponse)
}

// planOutput renders the plan as plain JSON data for the planning node
func planOutput(plan *api.PlanResponse) map[string]any {
	res := map[string]any{}
	data, err := json.Marshal(plan)
	if err != nil {
		return res
	}
	_ = json.Unmarshal(data, &res)
	return res
}
