package httpadapter

import (
	"regexp"
	"strings"

	scperrors "github.com/google-ads-confidential-computing/conf-data-processing-architecture-reference-sub001/internal/errors"
)

// statusLinePattern recognizes an HTTP status line (e.g. "HTTP/1.1 200 OK")
// so the header-line parser can skip it, matching section 4.2's
// "HTTP.*[0-9]{3}" rule.
var statusLinePattern = regexp.MustCompile(`HTTP.*[0-9]{3}`)

// Headers is a multi-map of header lines: key order is not kept, but
// each key's values keep their arrival order and duplicates are
// preserved exactly as received -- the parser does not enforce
// uniqueness (section 8's header-parser-idempotence property).
type Headers map[string][]string

// Add appends a value for key without deduplication.
func (h Headers) Add(key, value string) {
	h[key] = append(h[key], value)
}

// ParseHeaderLine implements the raw header-line parsing rules from
// section 4.2, the Go-native replacement for a libcurl header callback:
// for each received line, skip CRLF-only lines and the status line;
// otherwise split at the first colon. If that colon appears after the
// line's first '\r', the line is malformed and BadHeader is returned.
// Exactly one space after the colon is trimmed, if present. Header keys
// are kept case-sensitive as received, and repeated lines for the same
// key produce repeated entries rather than being merged.
func ParseHeaderLine(line string, into Headers) error {
	trimmed := strings.TrimRight(line, "\r\n")
	if trimmed == "" {
		return nil // CRLF-only line
	}
	if statusLinePattern.MatchString(trimmed) {
		return nil
	}

	crIdx := strings.IndexByte(line, '\r')
	colonIdx := strings.IndexByte(line, ':')
	if colonIdx < 0 {
		return nil // no colon: not a header line, nothing to record
	}
	if crIdx >= 0 && colonIdx > crIdx {
		return scperrors.New(scperrors.KindBadHeader, "colon appears after carriage return")
	}

	key := trimmed[:colonIdx]
	value := trimmed[colonIdx+1:]
	value = strings.TrimPrefix(value, " ")

	into.Add(key, value)
	return nil
}
