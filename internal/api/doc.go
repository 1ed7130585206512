// Package api implements the HTTP surface: task submission, task polling,
// and health checking, with routing built on chi.
package api
