// Package story parses generated biography markdown into structured data:
// the timeline table, the person profile, location sections, and the
// auto-appended coordinate table. It also maintains the on-disk layout of
// story markdown and map HTML files and runs data-quality checks over a
// document.
package story
