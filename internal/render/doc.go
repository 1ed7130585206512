// Package render produces the map artifacts for a task: the standalone
// profile and merged-view HTML pages, a degraded fallback page, and the
// GeoJSON/CSV exports. Pages are self-contained documents that load Leaflet
// from public CDNs and embed their data as a JSON payload.
package render
