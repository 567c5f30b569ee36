package nodes

import (
	"context"
	"log/slog"

	"github.com/abdulateeb/Agentic-Chat/internal/state"
	"github.com/abdulateeb/Agentic-Chat/pkg/api"
	"github.com/abdulateeb/Agentic-Chat/pkg/log"
)

type (
	// Broadcaster delivers a message to every subscriber of a workflow
	Broadcaster interface {
		BroadcastToWorkflow(
			ctx context.Context, id api.WorkflowID, msg any,
		) error
	}

	// Manager creates and updates the nodes of one workflow. Every change
	// is persisted before it is broadcast
	Manager struct {
		state    *state.Manager
		bcast    Broadcaster
		workflow api.WorkflowID
	}
)

// NewManager binds a node manager to a workflow
func NewManager(
	st *state.Manager, bcast Broadcaster, workflow api.WorkflowID,
) *Manager {
	return &Manager{
		state:    st,
		bcast:    bcast,
		workflow: workflow,
	}
}

// WorkflowID returns the workflow this manager is bound to
func (m *Manager) WorkflowID() api.WorkflowID {
	return m.workflow
}

// CreateNode builds a waiting node from the payload, persists it, and
// broadcasts it
func (m *Manager) CreateNode(
	ctx context.Context, label string, typ api.NodeType, parent api.NodeID,
	payload map[string]any,
) (*api.Node, error) {
	n := api.NewNode(label, typ, parent, api.NewNodeData(payload))
	if err := m.publish(ctx, n); err != nil {
		return nil, err
	}

	slog.Info("Node created",
		log.WorkflowID(m.workflow),
		log.NodeID(n.ID),
		slog.String("label", label),
		slog.String("type", string(typ)))
	return n, nil
}

// UpdateNodeStatus changes the node's status in place, records errText when
// it is non-empty, persists, and broadcasts
func (m *Manager) UpdateNodeStatus(
	ctx context.Context, n *api.Node, status api.NodeStatus, errText string,
) error {
	n.SetStatus(status, errText)
	if err := m.publish(ctx, n); err != nil {
		return err
	}

	slog.Info("Node status updated",
		log.WorkflowID(m.workflow),
		log.NodeID(n.ID),
		log.Status(status))
	return nil
}

// AddCommentary broadcasts a commentary entry. Commentary is not stored
func (m *Manager) AddCommentary(
	ctx context.Context, title, content, severity string,
) error {
	return m.bcast.BroadcastToWorkflow(ctx, m.workflow,
		api.CommentaryEvent(api.Commentary{
			Title:    title,
			Content:  content,
			Severity: severity,
		}),
	)
}

// ReportError broadcasts an error event for the workflow
func (m *Manager) ReportError(ctx context.Context, message string) error {
	return m.bcast.BroadcastToWorkflow(ctx, m.workflow,
		api.ErrorEvent(api.ErrorDetail{
			Message:    message,
			WorkflowID: m.workflow,
		}),
	)
}

func (m *Manager) publish(ctx context.Context, n *api.Node) error {
	if err := m.state.UpsertNode(ctx, m.workflow, n); err != nil {
		return err
	}
	return m.bcast.BroadcastToWorkflow(ctx, m.workflow, api.NodeEvent(n))
}
