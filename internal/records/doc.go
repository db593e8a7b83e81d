// Package records provides SQLite-backed persistence for pipeline items and
// digests, including lifecycle status transitions and the structured
// transcript and summary payloads stored alongside each item.
package records
