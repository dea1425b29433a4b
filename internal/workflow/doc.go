// Package workflow derives case state from the step catalog and the stored
// step records, and applies transitions. Visibility, the current step, and
// progress are never persisted; they are recomputed from records on every
// call, so a catalog change is reflected immediately in existing cases.
package workflow
