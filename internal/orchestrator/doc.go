// Package orchestrator runs the plan, execute, and synthesize state machine
// for a single workflow
//
// Planning asks the model for a direct answer or a plan. Execution runs the
// plan's tool steps sequentially in ascending plan ID order. Synthesis
// combines every completed tool result into a final answer. Failures inside
// a phase are recorded on the affected node and the run continues; anything
// else is caught once at the top and reported to subscribers
package orchestrator
