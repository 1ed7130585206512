// Package pipeline orchestrates the full map-generation flow for one task:
// figure extraction, per-person biography generation and enrichment, artifact
// rendering, exports, and the merged multi-person view. It implements
// task.Runner and reports progress through the task store.
package pipeline
