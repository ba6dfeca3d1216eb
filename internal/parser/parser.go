// Package parser extracts the title and body from a note file.
package parser

import (
	"strings"
)

// Result holds the output of parsing a note.
type Result struct {
	Title string
	Body  string
}

// Parse splits data at the first newline. The first line becomes the title
// with leading '#' markup and surrounding whitespace removed; the remainder,
// trimmed, becomes the body.
func Parse(data []byte) Result {
	first, rest, _ := strings.Cut(string(data), "\n")
	return Result{
		Title: deriveTitle(first),
		Body:  strings.TrimSpace(rest),
	}
}

// deriveTitle strips every leading '#' and then whitespace, so "## Foo"
// and "#Foo" both yield "Foo". A '#' after leading spaces is kept.
func deriveTitle(line string) string {
	return strings.TrimSpace(strings.TrimLeft(line, "#"))
}
