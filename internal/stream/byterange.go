package stream

import (
	"fmt"
	"strconv"
	"strings"

	"achilles/internal/services"
)

// ByteRange is an inclusive span of byte offsets.
type ByteRange struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// Length reports the number of bytes covered by r.
func (r ByteRange) Length() int64 {
	return r.End - r.Start + 1
}

// ContentRange renders the Content-Range header value for a resource of size bytes.
func (r ByteRange) ContentRange(size int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, size)
}

// ParseRange interprets a single-range "bytes=" header against a resource of
// size bytes. It returns services.ErrMalformedRange when the caller should
// fall back to a full response and services.ErrRangeNotSatisfiable when the
// start lies at or beyond EOF.
func ParseRange(header string, size int64) (ByteRange, error) {
	header = strings.TrimSpace(header)
	unit, spec, ok := strings.Cut(header, "=")
	if !ok || !strings.EqualFold(strings.TrimSpace(unit), "bytes") {
		return ByteRange{}, malformed(header, "unsupported range unit")
	}
	spec = strings.TrimSpace(spec)
	if strings.Contains(spec, ",") {
		return ByteRange{}, malformed(header, "multiple ranges")
	}
	startText, endText, ok := strings.Cut(spec, "-")
	if !ok {
		return ByteRange{}, malformed(header, "missing dash")
	}
	startText = strings.TrimSpace(startText)
	endText = strings.TrimSpace(endText)
	if startText == "" {
		return ByteRange{}, malformed(header, "suffix ranges are not supported")
	}
	start, err := parseOffset(startText)
	if err != nil {
		return ByteRange{}, malformed(header, err.Error())
	}
	if size <= 0 {
		return ByteRange{}, malformed(header, "empty resource")
	}
	if start >= size {
		return ByteRange{}, services.Wrap(services.ErrRangeNotSatisfiable, component, "parse range",
			fmt.Sprintf("start %d is beyond size %d", start, size), nil)
	}
	end := size - 1
	if endText != "" {
		end, err = parseOffset(endText)
		if err != nil {
			return ByteRange{}, malformed(header, err.Error())
		}
		if end < start {
			return ByteRange{}, malformed(header, "end precedes start")
		}
		if end >= size {
			end = size - 1
		}
	}
	return ByteRange{Start: start, End: end}, nil
}

func parseOffset(text string) (int64, error) {
	for _, r := range text {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("offset %q is not a decimal integer", text)
		}
	}
	value, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("offset %q out of range", text)
	}
	return value, nil
}

func malformed(header, reason string) error {
	return services.Wrap(services.ErrMalformedRange, component, "parse range", fmt.Sprintf("%q: %s", header, reason), nil)
}
