package helpers

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/abdulateeb/Agentic-Chat/pkg/api"
)

type (
	// MockConn records every message sent to a subscriber connection
	MockConn struct {
		sent    [][]byte
		sendErr error
		block   bool
		closed  bool
		mu      sync.Mutex
	}

	// Event is a decoded subscriber message with its payload left raw
	Event struct {
		Type    api.EventType   `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
)

var ErrConnClosed = errors.New("connection closed")

// NewMockConn creates a connection that accepts every send
func NewMockConn() *MockConn {
	return &MockConn{}
}

// Send records data, or fails with the configured error
func (c *MockConn) Send(ctx context.Context, data []byte) error {
	c.mu.Lock()
	block := c.block
	c.mu.Unlock()

	if block {
		<-ctx.Done()
		return ctx.Err()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnClosed
	}
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, data)
	return nil
}

// Close marks the connection closed
func (c *MockConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// SetError makes every subsequent send fail with err
func (c *MockConn) SetError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sendErr = err
}

// SetBlocking makes sends wait until their context is done
func (c *MockConn) SetBlocking(block bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.block = block
}

// Closed reports whether Close has been called
func (c *MockConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Raw returns a copy of every message sent so far
func (c *MockConn) Raw() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	res := make([][]byte, len(c.sent))
	copy(res, c.sent)
	return res
}

// Events decodes every message sent so far
func (c *MockConn) Events() []Event {
	raw := c.Raw()
	res := make([]Event, 0, len(raw))
	for _, data := range raw {
		var ev Event
		if err := json.Unmarshal(data, &ev); err == nil {
			res = append(res, ev)
		}
	}
	return res
}

// EventsOf returns the decoded messages of one type
func (c *MockConn) EventsOf(typ api.EventType) []Event {
	var res []Event
	for _, ev := range c.Events() {
		if ev.Type == typ {
			res = append(res, ev)
		}
	}
	return res
}

// Commentaries returns every commentary payload sent so far
func (c *MockConn) Commentaries() []api.Commentary {
	var res []api.Commentary
	for _, ev := range c.EventsOf(api.EventCommentary) {
		if cm, ok := ev.Commentary(); ok {
			res = append(res, cm)
		}
	}
	return res
}

// Nodes returns every node snapshot sent so far, in send order
func (c *MockConn) Nodes() []*api.Node {
	var res []*api.Node
	for _, ev := range c.EventsOf(api.EventNode) {
		if n, ok := ev.Node(); ok {
			res = append(res, n)
		}
	}
	return res
}

// Node decodes a node payload
func (e Event) Node() (*api.Node, bool) {
	if e.Type != api.EventNode {
		return nil, false
	}
	var n api.Node
	if err := json.Unmarshal(e.Payload, &n); err != nil {
		return nil, false
	}
	return &n, true
}

// Commentary decodes a commentary payload
func (e Event) Commentary() (api.Commentary, bool) {
	var c api.Commentary
	if e.Type != api.EventCommentary {
		return c, false
	}
	if err := json.Unmarshal(e.Payload, &c); err != nil {
		return c, false
	}
	return c, true
}

// ErrorDetail decodes an error payload
func (e Event) ErrorDetail() (api.ErrorDetail, bool) {
	var d api.ErrorDetail
	if e.Type != api.EventError {
		return d, false
	}
	if err := json.Unmarshal(e.Payload, &d); err != nil {
		return d, false
	}
	return d, true
}
