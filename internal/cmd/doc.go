// Package cmd defines the storymap CLI: the serve command running the HTTP
// API and the generate command for one-shot runs.
package cmd
