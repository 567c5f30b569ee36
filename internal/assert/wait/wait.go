package wait

import (
	"testing"
	"time"

	"github.com/abdulateeb/Agentic-Chat/internal/assert/helpers"
	"github.com/abdulateeb/Agentic-Chat/internal/orchestrator"
	"github.com/abdulateeb/Agentic-Chat/pkg/api"
	"github.com/abdulateeb/Agentic-Chat/pkg/util"
)

type (
	// Source exposes the subscriber messages received so far
	Source interface {
		Events() []helpers.Event
	}

	Wait struct {
		t        *testing.T
		source   Source
		timeout  time.Duration
		interval time.Duration
	}

	Predicate[T any] func(T) bool

	EventFilter Predicate[helpers.Event]
)

const (
	DefaultTimeout  = time.Second * 5
	DefaultInterval = time.Millisecond * 5
)

func On(t *testing.T, source Source) *Wait {
	return &Wait{
		t:        t,
		source:   source,
		timeout:  DefaultTimeout,
		interval: DefaultInterval,
	}
}

func (w *Wait) WithTimeout(timeout time.Duration) *Wait {
	res := *w
	res.timeout = timeout
	return &res
}

// ForEvents waits until at least count received events match the filter
// and returns the matches
func (w *Wait) ForEvents(count int, filter EventFilter) []helpers.Event {
	w.t.Helper()

	deadline := time.Now().Add(w.timeout)
	for {
		matched := Matching(w.source.Events(), filter)
		if len(matched) >= count {
			return matched
		}
		if time.Now().After(deadline) {
			w.t.Fatalf("timeout waiting for %d events, saw %d",
				count, len(matched))
			return nil
		}
		time.Sleep(w.interval)
	}
}

// ForEvent waits for a single matching event
func (w *Wait) ForEvent(filter EventFilter) helpers.Event {
	w.t.Helper()
	return w.ForEvents(1, filter)[0]
}

// Matching returns the events accepted by filter, in receive order
func Matching(evs []helpers.Event, filter EventFilter) []helpers.Event {
	var res []helpers.Event
	for _, ev := range evs {
		if filter(ev) {
			res = append(res, ev)
		}
	}
	return res
}

// And composes event filters and returns true when all match
func And(filters ...EventFilter) EventFilter {
	return func(ev helpers.Event) bool {
		for _, filter := range filters {
			if !filter(ev) {
				return false
			}
		}
		return true
	}
}

// Type creates a filter for a single event type
func Type(eventType api.EventType) EventFilter {
	return Types(eventType)
}

// Types creates a filter for the given event types
func Types(eventTypes ...api.EventType) EventFilter {
	if len(eventTypes) == 0 {
		return func(helpers.Event) bool { return false }
	}
	lookup := util.SetOf(eventTypes...)
	return func(ev helpers.Event) bool {
		return lookup.Contains(ev.Type)
	}
}

// Commentary matches commentary events with one of the given titles
func Commentary(titles ...string) EventFilter {
	lookup := util.SetOf(titles...)
	return func(ev helpers.Event) bool {
		c, ok := ev.Commentary()
		return ok && lookup.Contains(c.Title)
	}
}

// NodeStatus matches node events for the labelled node in one of the
// given statuses
func NodeStatus(label string, statuses ...api.NodeStatus) EventFilter {
	lookup := util.SetOf(statuses...)
	return func(ev helpers.Event) bool {
		n, ok := ev.Node()
		return ok && n.Label == label && lookup.Contains(n.Status)
	}
}

// NodeTerminal matches node events that carry a terminal status
func NodeTerminal() EventFilter {
	return func(ev helpers.Event) bool {
		n, ok := ev.Node()
		return ok && n.IsTerminal()
	}
}

// Finished matches the commentary that closes a workflow run, whether it
// succeeded or failed
func Finished() EventFilter {
	return Commentary(
		orchestrator.TitleFinalAnswer,
		orchestrator.TitleSynthesisFailed,
		orchestrator.TitleWorkflowFailed,
	)
}
