// Package services defines shared utilities consumed by the HTTP handlers and
// the streaming core.
//
// Key responsibilities:
//   - Context helpers that stamp correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent HTTP statuses (400, 403, 404, 416, 500).
//
// Use these helpers when adding new routes so error handling and
// observability stay uniform across the server.
package services
