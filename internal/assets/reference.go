package assets

import (
	"fmt"
	"net/url"
	"strings"
)

// Hint is the caller's intent attached to an asset reference as a query
// string. It is resolved once, where the reference is parsed.
type Hint int

const (
	HintNone Hint = iota
	HintInline
	HintSprite
	HintImage
)

var hintNames = [...]string{"none", "inline", "sprite", "image"}

func (h Hint) String() string {
	if int(h) < len(hintNames) {
		return hintNames[h]
	}
	return fmt.Sprintf("hint(%d)", int(h))
}

func (h Hint) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

func (h *Hint) UnmarshalText(b []byte) error {
	for i, n := range hintNames {
		if n == string(b) {
			*h = Hint(i)
			return nil
		}
	}
	return fmt.Errorf("unknown asset hint %q", b)
}

// Strategy is how a matched asset ends up in the output.
type Strategy int

const (
	CopyFile Strategy = iota
	InlineData
	SpriteSymbol
)

var strategyNames = [...]string{"copy", "inline", "sprite"}

func (s Strategy) String() string {
	if int(s) < len(strategyNames) {
		return strategyNames[s]
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

func (s Strategy) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Strategy) UnmarshalText(b []byte) error {
	for i, n := range strategyNames {
		if n == string(b) {
			*s = Strategy(i)
			return nil
		}
	}
	return fmt.Errorf("unknown asset strategy %q", b)
}

// Reference is an asset import with its query hint split off.
type Reference struct {
	Path  string
	Hint  Hint
	Query string
}

// hintPrecedence follows the order the branches are tried in.
var hintPrecedence = []struct {
	key  string
	hint Hint
}{
	{"inline", HintInline},
	{"sprite", HintSprite},
	{"image", HintImage},
}

// ParseReference splits "icon.svg?sprite" into path and hint. A query
// naming none of inline, sprite or image yields HintNone; the raw query is
// kept either way. Fragments are dropped.
func ParseReference(raw string) Reference {
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		raw = raw[:i]
	}
	path, query, found := strings.Cut(raw, "?")
	ref := Reference{Path: path, Query: query}
	if !found || query == "" {
		return ref
	}
	values, err := url.ParseQuery(query)
	if err != nil {
		return ref
	}
	for _, p := range hintPrecedence {
		if _, ok := values[p.key]; ok {
			ref.Hint = p.hint
			break
		}
	}
	return ref
}

func (r Reference) String() string {
	if r.Query == "" {
		return r.Path
	}
	return r.Path + "?" + r.Query
}
