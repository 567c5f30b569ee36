// Package workflow starts orchestrator runs in the background and serves
// the read path over stored workflows
package workflow
