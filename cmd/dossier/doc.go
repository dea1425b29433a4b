// Package main hosts the dossier CLI entrypoint and command graph.
//
// The Cobra-based command tree is the back-office surface for the LLC
// formation workflow: it creates and reviews cases, submits and validates
// step content, uploads supporting documents, and reports progress and
// database health. It centralizes configuration resolution and engine wiring
// so subcommands can focus on user experience.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
