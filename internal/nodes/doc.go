// Package nodes applies node changes for one workflow, persisting each change
// before publishing it to subscribers
package nodes
