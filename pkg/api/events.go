package api

type (
	// EventType distinguishes the messages pushed to subscribers
	EventType string

	// Event is the envelope broadcast to every subscriber of a workflow
	Event struct {
		Payload any       `json:"payload"`
		Type    EventType `json:"type"`
	}

	// Commentary is a human-readable progress note
	Commentary struct {
		Title    string `json:"title"`
		Content  string `json:"content"`
		Severity string `json:"severity"`
	}

	// ErrorDetail describes a failure reported to subscribers
	ErrorDetail struct {
		Message    string     `json:"message"`
		WorkflowID WorkflowID `json:"workflow_id,omitempty"`
		Detail     string     `json:"detail,omitempty"`
	}
)

const (
	EventNode       EventType = "node"
	EventCommentary EventType = "commentary"
	EventError      EventType = "error"
)

const (
	SeverityInfo    = "info"
	SeverityWarn    = "warn"
	SeveritySuccess = "success"
	SeverityError   = "error"
)

// NodeEvent wraps a full node snapshot
func NodeEvent(n *Node) *Event {
	return &Event{Type: EventNode, Payload: n}
}

// CommentaryEvent wraps a commentary entry
func CommentaryEvent(c Commentary) *Event {
	return &Event{Type: EventCommentary, Payload: c}
}

// ErrorEvent wraps an error description
func ErrorEvent(d ErrorDetail) *Event {
	return &Event{Type: EventError, Payload: d}
}
