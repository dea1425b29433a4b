// Package records persists formation cases and their per-step records in
// SQLite and defines the closed status enums the workflow engine derives from.
//
// A step with no row is Unset; rows are only created by engine transitions.
// UpsertRecord is atomic per (case, step) key and carries a revision-based
// compare-and-swap so a lost race surfaces as ErrRevisionConflict instead of a
// silent last-write-wins. No cross-step atomicity is provided or implied.
//
// Schema changes bump the version in schema.go; the database is rebuilt from
// scratch rather than migrated.
package records
