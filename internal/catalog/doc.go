// Package catalog persists the media rows that map content identifiers to
// stored file paths, backed by SQLite.
//
// Movies and shows share the movies table (distinguished by type); episodes
// hang off shows and parts hang off movies. The stream routes only ever ask
// one question of this package: which absolute path was recorded for a given
// kind and id. Paths returned here are still untrusted and go through the
// path guard before any file is opened.
//
// Schema changes bump schemaVersion in schema.go; an existing database with
// a different version is refused rather than migrated.
package catalog
