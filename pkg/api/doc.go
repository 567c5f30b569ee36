// Package api defines the core data types shared by the workflow core
//
// This package contains workflows and their node trees, planner output,
// tool call results, the events pushed to subscribers, and the HTTP
// messages exchanged with clients
package api
