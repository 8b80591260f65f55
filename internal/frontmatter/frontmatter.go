// Package frontmatter reads the YAML header of Markdown pages.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter is returned when a document opens a header
// with --- but never closes it.
var ErrMissingClosingDelimiter = errors.New("front matter: missing closing --- delimiter")

// Meta is the page header. Unknown keys are kept in Params.
type Meta struct {
	Title       string         `yaml:"title"`
	Layout      string         `yaml:"layout"`
	Description string         `yaml:"description"`
	Params      map[string]any `yaml:",inline"`
}

// Split separates a `---` delimited YAML header from the body. When the
// document has no header, had is false and body is the whole input.
func Split(content []byte) (header, body []byte, had bool, err error) {
	nl := "\n"
	if bytes.Contains(content, []byte("\r\n")) {
		nl = "\r\n"
	}

	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	start := len(open)
	if bytes.HasPrefix(content[start:], open) {
		return []byte{}, content[start+len(open):], true, nil
	}

	closing := []byte(nl + "---")
	idx := bytes.Index(content[start:], closing)
	if idx < 0 {
		return nil, nil, false, ErrMissingClosingDelimiter
	}
	end := start + idx + len(nl)
	rest := content[start+idx+len(closing):]
	switch {
	case bytes.HasPrefix(rest, []byte(nl)):
		rest = rest[len(nl):]
	case len(rest) == 0:
	default:
		// "---" followed by more text on the line is not a delimiter.
		return nil, nil, false, ErrMissingClosingDelimiter
	}
	return content[start:end], rest, true, nil
}

// Parse splits content and decodes its header.
func Parse(content []byte) (Meta, []byte, error) {
	var meta Meta
	header, body, had, err := Split(content)
	if err != nil {
		return meta, nil, err
	}
	if !had || len(bytes.TrimSpace(header)) == 0 {
		return meta, body, nil
	}
	if err := yaml.Unmarshal(header, &meta); err != nil {
		return meta, nil, fmt.Errorf("front matter: %w", err)
	}
	return meta, body, nil
}
