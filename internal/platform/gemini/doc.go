// Package gemini implements the generation interfaces using Google's Gemini
// API. It handles prompt templating, retry with exponential backoff, and
// mapping API failures onto the generation error taxonomy.
package gemini
