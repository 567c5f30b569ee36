package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/abdulateeb/Agentic-Chat/pkg/api"
	"github.com/abdulateeb/Agentic-Chat/pkg/log"
	"github.com/abdulateeb/Agentic-Chat/pkg/util"
)

type (
	// Conn is a subscriber's transport handle
	Conn interface {
		// Send delivers one encoded message, honoring ctx's deadline
		Send(ctx context.Context, data []byte) error

		// Close releases the transport
		Close() error
	}

	// Registry maps sessions to their connections and the workflow each
	// session watches
	Registry struct {
		conns       map[api.SessionID]Conn
		workflows   map[api.SessionID]api.WorkflowID
		subscribers map[api.WorkflowID]util.Set[api.SessionID]
		sendTimeout time.Duration
		mu          sync.Mutex
	}

	target struct {
		conn    Conn
		session api.SessionID
	}
)

// DefaultSendTimeout bounds a single send when none is configured
const DefaultSendTimeout = 5 * time.Second

var ErrEncodeMessage = errors.New("failed to encode message")

// New creates an empty registry. Each send is bounded by sendTimeout
func New(sendTimeout time.Duration) *Registry {
	if sendTimeout <= 0 {
		sendTimeout = DefaultSendTimeout
	}
	return &Registry{
		conns:       map[api.SessionID]Conn{},
		workflows:   map[api.SessionID]api.WorkflowID{},
		subscribers: map[api.WorkflowID]util.Set[api.SessionID]{},
		sendTimeout: sendTimeout,
	}
}

// Connect registers conn as the session's handle, subscribed to workflow.
// A previous handle for the same session is replaced and closed
func (r *Registry) Connect(
	conn Conn, session api.SessionID, workflow api.WorkflowID,
) {
	r.mu.Lock()
	old := r.conns[session]
	r.unlink(session)
	r.conns[session] = conn
	r.workflows[session] = workflow
	subs, ok := r.subscribers[workflow]
	if !ok {
		subs = util.Set[api.SessionID]{}
		r.subscribers[workflow] = subs
	}
	subs.Add(session)
	r.mu.Unlock()

	if old != nil && old != conn {
		_ = old.Close()
		slog.Info("Replaced subscriber connection",
			log.SessionID(session))
	}
	slog.Info("Subscriber connected",
		log.SessionID(session),
		log.WorkflowID(workflow))
}

// Disconnect removes the session's handle and subscription. Unknown
// sessions are ignored
func (r *Registry) Disconnect(session api.SessionID) {
	r.mu.Lock()
	_, ok := r.conns[session]
	r.unlink(session)
	r.mu.Unlock()

	if ok {
		slog.Info("Subscriber disconnected", log.SessionID(session))
	}
}

// Release disconnects the session only while conn is still its handle and
// reports whether it did. The caller keeps ownership of conn
func (r *Registry) Release(session api.SessionID, conn Conn) bool {
	r.mu.Lock()
	current, ok := r.conns[session]
	released := ok && current == conn
	if released {
		r.unlink(session)
	}
	r.mu.Unlock()

	if released {
		slog.Info("Subscriber disconnected", log.SessionID(session))
	}
	return released
}

// Send delivers msg to one session. Unknown sessions are logged and
// skipped. A failed send disconnects and closes that handle
func (r *Registry) Send(
	ctx context.Context, session api.SessionID, msg any,
) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncodeMessage, err)
	}

	r.mu.Lock()
	conn, ok := r.conns[session]
	r.mu.Unlock()

	if !ok {
		slog.Warn("No connection for session",
			log.SessionID(session))
		return nil
	}
	r.deliver(ctx, target{conn: conn, session: session}, data)
	return nil
}

// BroadcastToWorkflow delivers msg to every session subscribed to the
// workflow. Sends run concurrently and a failing subscriber never stops
// delivery to the others
func (r *Registry) BroadcastToWorkflow(
	ctx context.Context, workflow api.WorkflowID, msg any,
) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncodeMessage, err)
	}

	targets := r.targets(workflow)
	if len(targets) == 0 {
		slog.Info("No subscribers for workflow",
			log.WorkflowID(workflow))
		return nil
	}

	var g errgroup.Group
	for _, t := range targets {
		g.Go(func() error {
			r.deliver(ctx, t, data)
			return nil
		})
	}
	return g.Wait()
}

// Sessions returns the sessions subscribed to the workflow, sorted
func (r *Registry) Sessions(workflow api.WorkflowID) []api.SessionID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return util.Sorted(r.subscribers[workflow])
}

// WorkflowOf returns the workflow a session is subscribed to
func (r *Registry) WorkflowOf(session api.SessionID) (api.WorkflowID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.workflows[session]
	return id, ok
}

// Count returns the number of registered sessions
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

// CloseAll closes and forgets every connection
func (r *Registry) CloseAll() {
	r.mu.Lock()
	conns := make([]Conn, 0, len(r.conns))
	for _, c := range r.conns {
		conns = append(conns, c)
	}
	r.conns = map[api.SessionID]Conn{}
	r.workflows = map[api.SessionID]api.WorkflowID{}
	r.subscribers = map[api.WorkflowID]util.Set[api.SessionID]{}
	r.mu.Unlock()

	for _, c := range conns {
		_ = c.Close()
	}
}

func (r *Registry) targets(workflow api.WorkflowID) []target {
	r.mu.Lock()
	defer r.mu.Unlock()

	subs := r.subscribers[workflow]
	res := make([]target, 0, subs.Len())
	for session := range subs {
		if conn, ok := r.conns[session]; ok {
			res = append(res, target{conn: conn, session: session})
		}
	}
	return res
}

func (r *Registry) deliver(ctx context.Context, t target, data []byte) {
	sendCtx, cancel := context.WithTimeout(ctx, r.sendTimeout)
	defer cancel()

	if err := t.conn.Send(sendCtx, data); err != nil {
		slog.Warn("Failed to send to subscriber",
			log.SessionID(t.session),
			log.Error(err))
		r.drop(t)
	}
}

// drop removes the handle only if it is still the one registered for the
// session, so a newer connection is left alone
func (r *Registry) drop(t target) {
	r.mu.Lock()
	current, ok := r.conns[t.session]
	if ok && current == t.conn {
		r.unlink(t.session)
	}
	r.mu.Unlock()

	_ = t.conn.Close()
}

// unlink must be called with r.mu held
func (r *Registry) unlink(session api.SessionID) {
	if wf, ok := r.workflows[session]; ok {
		if subs, ok := r.subscribers[wf]; ok {
			subs.Remove(session)
			if subs.IsEmpty() {
				delete(r.subscribers, wf)
			}
		}
	}
	delete(r.conns, session)
	delete(r.workflows, session)
}
