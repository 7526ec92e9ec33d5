package httpadapter

import (
	"testing"

	scperrors "github.com/google-ads-confidential-computing/conf-data-processing-architecture-reference-sub001/internal/errors"
)

func TestParseHeaderLineIdempotent(t *testing.T) {
	h := Headers{}
	line := "Content-Type: application/json\r\n"
	if err := ParseHeaderLine(line, h); err != nil {
		t.Fatalf("first parse: %v", err)
	}
	if err := ParseHeaderLine(line, h); err != nil {
		t.Fatalf("second parse: %v", err)
	}
	if len(h["Content-Type"]) != 2 {
		t.Fatalf("expected two identical entries, got %v", h["Content-Type"])
	}
	if h["Content-Type"][0] != "application/json" || h["Content-Type"][1] != "application/json" {
		t.Fatalf("unexpected values: %v", h["Content-Type"])
	}
}

func TestParseHeaderLineSkipsCRLFAndStatusLine(t *testing.T) {
	h := Headers{}
	for _, line := range []string{"\r\n", "HTTP/1.1 200 OK\r\n"} {
		if err := ParseHeaderLine(line, h); err != nil {
			t.Fatalf("unexpected error for %q: %v", line, err)
		}
	}
	if len(h) != 0 {
		t.Fatalf("expected no headers recorded, got %v", h)
	}
}

func TestParseHeaderLineTrimsExactlyOneSpace(t *testing.T) {
	h := Headers{}
	if err := ParseHeaderLine("X-Foo:  two-spaces", h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h["X-Foo"][0] != " two-spaces" {
		t.Fatalf("expected exactly one leading space trimmed, got %q", h["X-Foo"][0])
	}
}

func TestParseHeaderLineRejectsColonAfterCarriageReturn(t *testing.T) {
	h := Headers{}
	err := ParseHeaderLine("X-Foo\r: bar", h)
	if scperrors.KindOf(err) != scperrors.KindBadHeader {
		t.Fatalf("expected KindBadHeader, got %v", err)
	}
}
