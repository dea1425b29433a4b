// Package notifications delivers workflow events as ntfy push messages.
//
// The engine treats delivery as fire and forget: Publish errors are logged by
// the caller and never abort a transition that was already decided.
package notifications
