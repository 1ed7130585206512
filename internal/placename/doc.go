// Package placename splits mixed historical place descriptions into ancient
// and modern name components using a language model, and provides helpers for
// normalizing place names before geocoding. Split results are cached for the
// process lifetime.
package placename
