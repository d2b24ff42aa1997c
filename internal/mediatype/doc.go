// Package mediatype maps file extensions to MIME types using a static table.
//
// The table is plain data so lookups are reproducible across hosts; the
// operating system's MIME database is never consulted. Operators extend or
// override entries through the stream.mime_types configuration section.
package mediatype
