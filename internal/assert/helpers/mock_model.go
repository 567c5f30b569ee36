package helpers

import (
	"context"
	"sync"

	"github.com/abdulateeb/Agentic-Chat/pkg/api"
)

// MockModel is a scripted model client
type MockModel struct {
	plan         *api.PlanResponse
	planErr      error
	synthesis    string
	synthErr     error
	planPrompts  []string
	synthPrompts []string
	panicOnPlan  any
	mu           sync.Mutex
}

// NewMockModel creates a model that returns an empty plan and an empty
// synthesis until configured
func NewMockModel() *MockModel {
	return &MockModel{plan: &api.PlanResponse{}}
}

// GeneratePlan records the prompt and returns the configured plan or error
func (m *MockModel) GeneratePlan(
	_ context.Context, prompt string,
) (*api.PlanResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.planPrompts = append(m.planPrompts, prompt)
	if m.panicOnPlan != nil {
		panic(m.panicOnPlan)
	}
	if m.planErr != nil {
		return nil, m.planErr
	}
	return m.plan, nil
}

// GenerateSynthesis records the prompt and returns the configured answer or
// error
func (m *MockModel) GenerateSynthesis(
	_ context.Context, prompt string,
) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.synthPrompts = append(m.synthPrompts, prompt)
	if m.synthErr != nil {
		return "", m.synthErr
	}
	return m.synthesis, nil
}

// SetPlan configures the plan returned by GeneratePlan
func (m *MockModel) SetPlan(plan *api.PlanResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plan = plan
}

// SetDirectAnswer configures GeneratePlan to answer directly
func (m *MockModel) SetDirectAnswer(answer string) {
	m.SetPlan(&api.PlanResponse{DirectAnswer: &answer})
}

// SetPlanError makes GeneratePlan fail with err
func (m *MockModel) SetPlanError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.planErr = err
}

// SetPlanPanic makes GeneratePlan panic with v
func (m *MockModel) SetPlanPanic(v any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.panicOnPlan = v
}

// SetSynthesis configures the answer returned by GenerateSynthesis
func (m *MockModel) SetSynthesis(answer string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.synthesis = answer
}

// SetSynthesisError makes GenerateSynthesis fail with err
func (m *MockModel) SetSynthesisError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.synthErr = err
}

// PlanPrompts returns every planning prompt received
func (m *MockModel) PlanPrompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.planPrompts...)
}

// SynthesisPrompts returns every synthesis prompt received
func (m *MockModel) SynthesisPrompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.synthPrompts...)
}
