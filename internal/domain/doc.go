// Package domain contains the core entities of the map-generation system:
// person profiles, location events, and task result summaries. It is
// independent of any delivery mechanism or external service.
package domain
