// Package generation defines the interfaces and error types for the
// text-generation collaborator. It decouples the orchestration core from the
// concrete LLM client, which lives under internal/platform.
package generation
