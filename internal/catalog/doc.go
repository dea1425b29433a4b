// Package catalog defines the step configuration of the formation workflow:
// which steps exist, who owns them, how they are ordered, and the declarative
// rules (prerequisites, visibility, content requirements, side effects) the
// engine evaluates uniformly for every step.
//
// The catalog is loaded once and read-only afterwards. Changing it is a
// configuration change, not a runtime operation.
package catalog
