// Package stream serves approved files over HTTP with single byte-range
// support.
//
// Range policy:
//
//   - "bytes=S-" serves S through EOF; "bytes=S-E" serves S through E, with E
//     clamped to the last byte when it points past EOF.
//   - A start at or beyond EOF answers 416 with "Content-Range: bytes */size".
//   - Anything else (suffix ranges, multiple ranges, inverted ranges, other
//     units, overflowing integers, empty files) degrades to a full 200.
//
// Bodies are read through a seek plus io.LimitReader so memory per request is
// bounded by one chunk buffer. The copy loop checks the request context
// between chunks, optionally paces itself with a token bucket, and refreshes a
// per-chunk write deadline so a stalled client cannot pin a handler forever.
// Headers always describe exactly the bytes the loop intends to send; when a
// transfer stops early the handler returns and net/http closes the connection
// because the declared Content-Length was not met.
package stream
