package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/abdulateeb/Agentic-Chat/internal/store"
	"github.com/abdulateeb/Agentic-Chat/pkg/api"
	"github.com/abdulateeb/Agentic-Chat/pkg/log"
)

type (
	// Manager owns workflow records and serializes every read-modify-write
	// on a single workflow
	Manager struct {
		store  store.Store
		locks  map[api.WorkflowID]*workflowLock
		active map[api.WorkflowID]struct{}
		mu     sync.Mutex
	}

	// UpdateFunc mutates a workflow in place during UpdateWorkflow
	UpdateFunc func(*api.Workflow) error

	workflowLock struct {
		sync.Mutex
		refs int
	}
)

var (
	ErrWorkflowExists   = errors.New("workflow already exists")
	ErrWorkflowNotFound = errors.New("workflow not found")
	ErrWorkflowActive   = errors.New("workflow already has an active run")
	ErrNilNode          = errors.New("node is nil")
	ErrStore            = errors.New("workflow store failure")
)

// NewManager creates a manager backed by the given store
func NewManager(s store.Store) *Manager {
	return &Manager{
		store:  s,
		locks:  map[api.WorkflowID]*workflowLock{},
		active: map[api.WorkflowID]struct{}{},
	}
}

// CreateWorkflow creates and persists a new workflow in the planning state
func (m *Manager) CreateWorkflow(
	ctx context.Context, session api.SessionID, query string,
) (*api.Workflow, error) {
	wf := api.NewWorkflow(session, query)

	unlock := m.lock(wf.ID)
	defer unlock()

	exists, err := m.store.Exists(ctx, wf.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", ErrWorkflowExists, wf.ID)
	}
	if err := m.store.Set(ctx, wf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}

	slog.Info("Workflow created",
		log.WorkflowID(wf.ID),
		log.SessionID(session))
	return wf, nil
}

// GetWorkflow returns a snapshot of the workflow
func (m *Manager) GetWorkflow(
	ctx context.Context, id api.WorkflowID,
) (*api.Workflow, error) {
	wf, ok, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrWorkflowNotFound, id)
	}
	return wf, nil
}

// SaveWorkflow overwrites the stored workflow with wf. This is a blind
// write: callers holding a stale snapshot replace newer node updates
func (m *Manager) SaveWorkflow(ctx context.Context, wf *api.Workflow) error {
	if err := m.store.Set(ctx, wf); err != nil {
		return fmt.Errorf("%w: %w", ErrStore, err)
	}
	return nil
}

// UpsertNode inserts or replaces the node in the workflow's node tree and
// persists the workflow
func (m *Manager) UpsertNode(
	ctx context.Context, id api.WorkflowID, n *api.Node,
) error {
	if n == nil {
		return ErrNilNode
	}
	return m.UpdateWorkflow(ctx, id, func(wf *api.Workflow) error {
		if prev, ok := wf.Nodes[n.ID]; ok {
			checkTransition(id, n, prev.Status)
		}
		wf.SetNode(n.Clone())
		return nil
	})
}

// UpdateWorkflow applies fn to the current workflow and persists the
// result. Updates on the same workflow are serialized
func (m *Manager) UpdateWorkflow(
	ctx context.Context, id api.WorkflowID, fn UpdateFunc,
) error {
	unlock := m.lock(id)
	defer unlock()

	wf, err := m.GetWorkflow(ctx, id)
	if err != nil {
		return err
	}
	if err := fn(wf); err != nil {
		return err
	}
	if err := m.store.Set(ctx, wf); err != nil {
		return fmt.Errorf("%w: %w", ErrStore, err)
	}
	return nil
}

// DeleteWorkflow removes the workflow. A workflow whose run holds a claim
// cannot be deleted
func (m *Manager) DeleteWorkflow(ctx context.Context, id api.WorkflowID) error {
	unlock := m.lock(id)
	defer unlock()

	if m.IsActive(id) {
		return fmt.Errorf("%w: %s", ErrWorkflowActive, id)
	}

	removed, err := m.store.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStore, err)
	}
	if !removed {
		return fmt.Errorf("%w: %s", ErrWorkflowNotFound, id)
	}
	slog.Info("Workflow deleted", log.WorkflowID(id))
	return nil
}

// ListWorkflows returns snapshots of every stored workflow
func (m *Manager) ListWorkflows(ctx context.Context) ([]*api.Workflow, error) {
	res, err := m.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}
	return res, nil
}

// Claim marks the workflow as having an active run. The returned func
// releases the claim and is safe to call more than once. Claiming waits
// for any in-progress mutation of the workflow, so it never interleaves
// with DeleteWorkflow
func (m *Manager) Claim(id api.WorkflowID) (func(), error) {
	unlock := m.lock(id)
	defer unlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.active[id]; ok {
		return nil, fmt.Errorf("%w: %s", ErrWorkflowActive, id)
	}
	m.active[id] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.active, id)
		})
	}, nil
}

// IsActive reports whether a run currently holds the workflow's claim
func (m *Manager) IsActive(id api.WorkflowID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.active[id]
	return ok
}

func (m *Manager) lock(id api.WorkflowID) func() {
	m.mu.Lock()
	l, ok := m.locks[id]
	if !ok {
		l = &workflowLock{}
		m.locks[id] = l
	}
	l.refs++
	m.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()

		m.mu.Lock()
		defer m.mu.Unlock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, id)
		}
	}
}

func checkTransition(id api.WorkflowID, n *api.Node, from api.NodeStatus) {
	if from == n.Status {
		return
	}
	if !api.NodeTransitions.CanTransition(from, n.Status) {
		slog.Warn("Unexpected node status transition",
			log.WorkflowID(id),
			log.NodeID(n.ID),
			slog.String("from", string(from)),
			log.Status(n.Status))
	}
}
