// Package parser splits metadata documents into a YAML frontmatter header
// and a Markdown body.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const delim = "---"

// ErrNoFrontmatter is returned when a document does not open with a
// delimited header block.
var ErrNoFrontmatter = errors.New("parser: document has no frontmatter header")

// Result holds the output of parsing a document.
type Result struct {
	Frontmatter map[string]any
	Body        string
}

// Parse separates the frontmatter header (between leading --- delimiters)
// from the body and decodes the header. The body is returned trimmed.
func Parse(data []byte) (*Result, error) {
	header, body, err := split(data)
	if err != nil {
		return nil, err
	}

	fm := map[string]any{}
	if err := yaml.Unmarshal(header, &fm); err != nil {
		return nil, fmt.Errorf("parser: invalid frontmatter yaml: %w", err)
	}
	if fm == nil {
		fm = map[string]any{}
	}

	return &Result{
		Frontmatter: fm,
		Body:        strings.TrimSpace(body),
	}, nil
}

// Split returns the raw header bytes and the untrimmed body. It is used by
// callers that rewrite the header in place.
func Split(data []byte) (header []byte, body string, err error) {
	return split(data)
}

func split(data []byte) ([]byte, string, error) {
	trimmed := bytes.TrimLeft(data, "\uFEFF\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, "", ErrNoFrontmatter
	}

	rest := trimmed[len(delim):]
	// The opening delimiter must sit on its own line.
	if len(rest) > 0 && rest[0] != '\n' && rest[0] != '\r' {
		return nil, "", ErrNoFrontmatter
	}

	idx := closingDelim(rest)
	if idx < 0 {
		return nil, "", ErrNoFrontmatter
	}

	header := rest[:idx]
	after := rest[idx+1+len(delim):]
	// Drop the remainder of the closing delimiter line.
	if nl := bytes.IndexByte(after, '\n'); nl >= 0 && len(bytes.TrimSpace(after[:nl])) == 0 {
		after = after[nl+1:]
	} else if nl < 0 && len(bytes.TrimSpace(after)) == 0 {
		after = nil
	}
	return header, string(after), nil
}

// closingDelim finds the newline that precedes a line consisting solely of
// the delimiter.
func closingDelim(rest []byte) int {
	offset := 0
	for {
		i := bytes.Index(rest[offset:], []byte("\n"+delim))
		if i < 0 {
			return -1
		}
		pos := offset + i
		end := pos + 1 + len(delim)
		if end == len(rest) || rest[end] == '\n' || rest[end] == '\r' || rest[end] == ' ' || rest[end] == '\t' {
			return pos
		}
		offset = end
	}
}
