// Package middleware provides the HTTP middleware chain: request tracing and
// CORS origin enforcement.
package middleware
