// Package main hosts the briefcast CLI entrypoint and command graph.
//
// The Cobra-based command tree covers submission, item and digest
// inspection, queue health, configuration scaffolding, and the daemon
// subcommand that runs the worker pool in the foreground. It centralizes
// configuration resolution and store access so subcommands can focus on
// user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
