package model

import (
	"context"
	"errors"

	"github.com/abdulateeb/Agentic-Chat/pkg/api"
)

// Client produces plans and final answers from prompts
type Client interface {
	// GeneratePlan returns either a direct answer or a plan
	GeneratePlan(ctx context.Context, prompt string) (*api.PlanResponse, error)

	// GenerateSynthesis returns a final answer in free text
	GenerateSynthesis(ctx context.Context, prompt string) (string, error)
}

var (
	// ErrConnection covers transport failures, non-success HTTP statuses,
	// and expired deadlines
	ErrConnection = errors.New("failed to reach language model")

	// ErrResponse covers empty or unparseable model output
	ErrResponse = errors.New("invalid response from language model")
)
