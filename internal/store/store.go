package store

import (
	"context"
	"errors"

	"github.com/abdulateeb/Agentic-Chat/pkg/api"
)

// Store is a keyed container of workflows. Implementations must be safe for
// concurrent use and must never hand out objects that alias their internal
// state
type Store interface {
	// Get returns the workflow and whether it was found
	Get(ctx context.Context, id api.WorkflowID) (*api.Workflow, bool, error)

	// Set inserts or replaces the workflow keyed by its ID
	Set(ctx context.Context, wf *api.Workflow) error

	// Delete removes the workflow and reports whether it was present
	Delete(ctx context.Context, id api.WorkflowID) (bool, error)

	// Exists reports whether a workflow is stored under id
	Exists(ctx context.Context, id api.WorkflowID) (bool, error)

	// List returns every stored workflow in no particular order
	List(ctx context.Context) ([]*api.Workflow, error)

	// Close releases any resources held by the store
	Close() error
}

var (
	ErrNilWorkflow   = errors.New("workflow is nil")
	ErrEmptyID       = errors.New("workflow id is empty")
	ErrEncode        = errors.New("failed to encode workflow")
	ErrDecode        = errors.New("failed to decode workflow")
	ErrBackend       = errors.New("store backend error")
	ErrUnknownDriver = errors.New("unknown store backend")
)

func checkWorkflow(wf *api.Workflow) error {
	if wf == nil {
		return ErrNilWorkflow
	}
	if wf.ID == "" {
		return ErrEmptyID
	}
	return nil
}
