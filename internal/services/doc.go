// Package services holds cross-cutting helpers shared by the engine and its
// adapters: the sentinel error taxonomy used for failure classification and
// context annotation helpers that feed structured logging.
//
// Errors are tagged with a marker sentinel via Wrap so callers can classify
// failures with errors.Is without depending on concrete error types.
package services
