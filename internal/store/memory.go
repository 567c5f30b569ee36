package store

import (
	"context"
	"sync"

	"github.com/abdulateeb/Agentic-Chat/pkg/api"
)

// MemoryStore keeps workflows in process memory for the lifetime of the
// process
type MemoryStore struct {
	workflows map[api.WorkflowID]*api.Workflow
	mu        sync.Mutex
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		workflows: map[api.WorkflowID]*api.Workflow{},
	}
}

func (s *MemoryStore) Get(
	_ context.Context, id api.WorkflowID,
) (*api.Workflow, bool, error) {
	s.mu.Lock()
	wf, ok := s.workflows[id]
	s.mu.Unlock()

	if !ok {
		return nil, false, nil
	}
	return wf.Clone(), true, nil
}

func (s *MemoryStore) Set(_ context.Context, wf *api.Workflow) error {
	if err := checkWorkflow(wf); err != nil {
		return err
	}
	cpy := wf.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.workflows[cpy.ID] = cpy
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id api.WorkflowID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.workflows[id]
	delete(s.workflows, id)
	return ok, nil
}

func (s *MemoryStore) Exists(_ context.Context, id api.WorkflowID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.workflows[id]
	return ok, nil
}

func (s *MemoryStore) List(_ context.Context) ([]*api.Workflow, error) {
	s.mu.Lock()
	snapshot := make([]*api.Workflow, 0, len(s.workflows))
	for _, wf := range s.workflows {
		snapshot = append(snapshot, wf)
	}
	s.mu.Unlock()

	res := make([]*api.Workflow, len(snapshot))
	for i, wf := range snapshot {
		res[i] = wf.Clone()
	}
	return res, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
