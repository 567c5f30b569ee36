// Package agentic holds build-wide identity for the agentic workflow service
package agentic

const (
	// Name is the service name reported in logs and by the root endpoint
	Name = "agentic-sre"

	// Version is the service version reported in logs and by the root
	// endpoint
	Version = "1.0.0"
)
