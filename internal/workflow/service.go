package workflow

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/abdulateeb/Agentic-Chat/internal/orchestrator"
	"github.com/abdulateeb/Agentic-Chat/pkg/api"
	"github.com/abdulateeb/Agentic-Chat/pkg/log"
)

type (
	// Config controls run deadlines and how long Stop waits for them
	Config struct {
		Orchestrator    orchestrator.Config
		ShutdownTimeout time.Duration
	}

	// Service launches one orchestrator per workflow. Runs are bound to
	// the service's own context, so they outlive the request that started
	// them and end when the service stops
	Service struct {
		deps   orchestrator.Dependencies
		config Config
		ctx    context.Context
		cancel context.CancelFunc
		wg     sync.WaitGroup
		mu     sync.Mutex
		closed bool
	}
)

var (
	ErrStopped         = errors.New("workflow service is stopped")
	ErrShutdownTimeout = errors.New("timed out waiting for workflow runs")
)

// NewService creates a service for the given collaborators
func NewService(deps orchestrator.Dependencies, cfg Config) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		deps:   deps,
		config: cfg,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start validates the request, creates the workflow, and launches its run.
// It returns as soon as the run is scheduled
func (s *Service) Start(
	ctx context.Context, session api.SessionID, query string,
) (api.WorkflowID, error) {
	req := &api.InitiateRequest{Query: query, SessionID: session}
	if err := req.Validate(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrStopped
	}

	wf, err := s.deps.State.CreateWorkflow(ctx, session, query)
	if err != nil {
		return "", err
	}

	o, err := orchestrator.New(wf.ID, s.deps, s.config.Orchestrator)
	if err != nil {
		return "", err
	}

	// the workflow is active from the moment its ID is returned
	release, err := s.deps.State.Claim(wf.ID)
	if err != nil {
		return "", err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := o.RunClaimed(s.ctx, release); err != nil {
			slog.Error("Workflow run ended with error",
				log.WorkflowID(wf.ID),
				log.Error(err))
		}
	}()

	slog.Info("Workflow scheduled",
		log.WorkflowID(wf.ID),
		log.SessionID(session))
	return wf.ID, nil
}

// Get returns a snapshot of one workflow
func (s *Service) Get(
	ctx context.Context, id api.WorkflowID,
) (*api.Workflow, error) {
	return s.deps.State.GetWorkflow(ctx, id)
}

// List returns every stored workflow, oldest first
func (s *Service) List(ctx context.Context) ([]*api.Workflow, error) {
	res, err := s.deps.State.ListWorkflows(ctx)
	if err != nil {
		return nil, err
	}
	sortWorkflows(res)
	return res, nil
}

// Delete removes a workflow. A workflow with a run in progress cannot be
// deleted
func (s *Service) Delete(ctx context.Context, id api.WorkflowID) error {
	return s.deps.State.DeleteWorkflow(ctx, id)
}

// Stop rejects new runs, cancels the in-flight ones, and waits for them to
// record their outcome
func (s *Service) Stop() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		<-done
		return nil
	}

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return ErrShutdownTimeout
	}
}

func sortWorkflows(wfs []*api.Workflow) {
	slices.SortFunc(wfs, func(a, b *api.Workflow) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
