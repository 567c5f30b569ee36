// Package server implements the HTTP API and WebSocket surface
//
// This package provides endpoints for starting workflows, reading and
// deleting stored workflows, health checks, and the WebSocket channel that
// streams node updates and commentary to subscribers
package server
