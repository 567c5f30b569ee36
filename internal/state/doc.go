// Package state manages workflow records on top of a store
//
// All node and status mutations for a workflow go through the Manager, which
// serializes read-modify-write cycles per workflow and tracks which
// workflows have an active orchestration run
package state
