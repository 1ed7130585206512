// Package geo provides geocoding and great-circle distance computation. Place
// names are resolved against public geocoding services with an in-memory
// cache; distances use the Haversine approximation on a spherical Earth.
package geo
