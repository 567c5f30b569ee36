package helpers

import (
	"context"
	"slices"
	"sync"

	"github.com/abdulateeb/Agentic-Chat/pkg/api"
)

// MockExecutor is a tool executor with per-tool responses
type MockExecutor struct {
	results map[string]*api.ToolResult
	errors  map[string]error
	invoked []string
	params  map[string][]map[string]any
	mu      sync.Mutex
}

// NewMockExecutor creates an executor that reports success with a canned
// output for any tool without a configured response
func NewMockExecutor() *MockExecutor {
	return &MockExecutor{
		results: map[string]*api.ToolResult{},
		errors:  map[string]error{},
		params:  map[string][]map[string]any{},
	}
}

// Execute records the call and returns the configured result or error
func (e *MockExecutor) Execute(
	_ context.Context, name string, params map[string]any,
) (*api.ToolResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.invoked = append(e.invoked, name)
	e.params[name] = append(e.params[name], params)

	if err, ok := e.errors[name]; ok {
		return nil, err
	}
	if res, ok := e.results[name]; ok {
		return res, nil
	}
	return &api.ToolResult{
		Status: api.ToolSuccess,
		Output: "Mock result for " + name,
	}, nil
}

// SetResult configures the result for a tool
func (e *MockExecutor) SetResult(name string, res *api.ToolResult) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.results[name] = res
}

// SetError makes calls to a tool fail with err
func (e *MockExecutor) SetError(name string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errors[name] = err
}

// Invocations returns tool names in call order
func (e *MockExecutor) Invocations() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.invoked)
}

// WasInvoked reports whether the tool was called
func (e *MockExecutor) WasInvoked(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Contains(e.invoked, name)
}

// Params returns the parameters of every call to a tool
func (e *MockExecutor) Params(name string) []map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.params[name])
}
