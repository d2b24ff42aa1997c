// Package daemon runs the Achilles HTTP surface and owns its lifecycle.
//
// A Daemon holds a flock on the data directory so only one instance serves a
// catalog at a time, starts the API server, and reports runtime status. The
// API server exposes the stream routes (catalog id lookups and direct
// ?path= requests), a JSON health document, and the middleware chain that
// assigns request ids, writes access logs, answers CORS preflights, and
// enforces the optional bearer token.
//
// Handlers stay thin: the catalog maps ids to paths, the path guard approves
// them, and the streamer owns every byte written for an approved file.
package daemon
