// Package shared provides response helpers and context utilities used across
// the API handlers and middleware.
package shared
