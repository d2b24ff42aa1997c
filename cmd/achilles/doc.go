// Package main hosts the Achilles CLI entrypoint and command graph.
//
// The Cobra-based command tree runs the streaming daemon in the foreground,
// maintains the SQLite catalog, copies media into the storage root, and
// reports daemon health. It centralizes configuration resolution so
// subcommands can focus on output instead of wiring.
//
// Keep this package lean: new behaviour belongs in the internal packages
// first and is surfaced here through dedicated commands or flags.
package main
