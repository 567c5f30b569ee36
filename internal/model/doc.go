// Package model wraps the language model used for planning and synthesis
//
// Client is the collaborator the orchestrator depends on. GeminiClient is the
// production implementation over the Gemini REST API
package model
