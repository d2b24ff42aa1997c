package mediatype

import (
	"path/filepath"
	"strings"
)

// Fallback is returned for extensions the table does not know.
const Fallback = "application/octet-stream"

// Table maps lower-case extensions (with leading dot) to MIME types.
type Table map[string]string

var defaults = Table{
	// video
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".ts":   "video/mp2t",
	".m3u8": "application/vnd.apple.mpegurl",
	// audio
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".m4b":  "audio/mp4",
	".aac":  "audio/aac",
	".ogg":  "audio/ogg",
	".opus": "audio/ogg",
	".flac": "audio/flac",
	".wav":  "audio/wav",
	// images
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".avif": "image/avif",
	".svg":  "image/svg+xml",
	// documents and text tracks
	".pdf":  "application/pdf",
	".epub": "application/epub+zip",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".txt":  "text/plain",
	".vtt":  "text/vtt",
	".srt":  "application/x-subrip",
	".json": "application/json",
}

// Default returns a copy of the built-in table.
func Default() Table {
	return defaults.With(nil)
}

// With returns a new table containing t's entries overlaid with overrides.
// Override keys are normalized to lower case with a leading dot.
func (t Table) With(overrides map[string]string) Table {
	out := make(Table, len(t)+len(overrides))
	for ext, mimeType := range t {
		out[ext] = mimeType
	}
	for ext, mimeType := range overrides {
		ext = normalizeExt(ext)
		mimeType = strings.TrimSpace(mimeType)
		if ext == "" || mimeType == "" {
			continue
		}
		out[ext] = mimeType
	}
	return out
}

// Lookup returns the MIME type for path's extension, or Fallback.
func (t Table) Lookup(path string) string {
	if mimeType, ok := t[normalizeExt(filepath.Ext(path))]; ok {
		return mimeType
	}
	return Fallback
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" || ext == "." {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
