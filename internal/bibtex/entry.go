// Package bibtex parses and serializes BibTeX bibliography entries.
package bibtex

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pcox/bibsync/internal/identifier"
)

// ErrMalformed indicates BibTeX text that does not parse. There is no
// partial recovery: any structural problem in an entry surfaces as this
// one error kind.
var ErrMalformed = errors.New("malformed bibtex entry")

// Entry is one bibliography entry: its type and tag, an ordered field
// map, and the identifiers recognized while parsing. An empty identifier
// slot means no claim was made, not that none exists.
type Entry struct {
	Type string // entry type without the @, e.g. "article"
	Tag  string

	// Identifier slots, at most one per scheme.
	ArxivID string
	Texkey  string
	DOI     string

	names  []string          // field names in insertion order, lowercased
	values map[string]string // raw field values, quotes/braces kept
}

// NewEntry returns an empty entry of the given type and tag.
func NewEntry(entryType, tag string) *Entry {
	return &Entry{
		Type:   entryType,
		Tag:    tag,
		values: make(map[string]string),
	}
}

// Field returns the raw value of a field and whether it is present.
func (e *Entry) Field(name string) (string, bool) {
	v, ok := e.values[name]
	return v, ok
}

// SetField sets a field value, preserving insertion order for new names.
func (e *Entry) SetField(name, value string) {
	if e.values == nil {
		e.values = make(map[string]string)
	}
	if _, ok := e.values[name]; !ok {
		e.names = append(e.names, name)
	}
	e.values[name] = value
}

// FieldNames returns the field names in insertion order.
func (e *Entry) FieldNames() []string {
	out := make([]string, len(e.names))
	copy(out, e.names)
	return out
}

// Parse parses a single BibTeX entry. The tag is taken from the opening
// line; eprint and doi fields populate the identifier slots when their
// quoted content matches the corresponding pattern. Entries published in
// JCAP or JHEP get a number field equal to the year, a SISSA journal
// requirement applied once at construction time.
func Parse(raw string) (*Entry, error) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "@") {
		return nil, fmt.Errorf("%w: text does not start with @", ErrMalformed)
	}

	e := NewEntry("article", "")
	sissa := false

	for _, line := range strings.Split(raw, "\n") {
		switch {
		case strings.HasPrefix(line, "@"):
			brace := strings.Index(line, "{")
			comma := strings.Index(line, ",")
			if brace < 0 || comma < 0 || comma < brace {
				return nil, fmt.Errorf("%w: bad entry header %q", ErrMalformed, line)
			}
			if t := strings.TrimSpace(line[1:brace]); t != "" {
				e.Type = t
			}
			e.Tag = line[brace+1 : comma]
			if identifier.Classify(e.Tag) == identifier.Texkey {
				e.Texkey = e.Tag
			}

		case strings.HasPrefix(line, "}"):
			// End of entry; anything after is ignored.
			return finishEntry(e, sissa)

		default:
			name, value, ok := strings.Cut(line, "=")
			if !ok {
				return nil, fmt.Errorf("%w: field line without '=': %q", ErrMalformed, line)
			}
			name = strings.ToLower(strings.TrimSpace(name))
			value = strings.TrimSpace(value)
			value = strings.TrimSuffix(value, ",")
			e.SetField(name, value)

			switch name {
			case "eprint":
				if id := unquote(value); identifier.IsArxiv(identifier.Classify(id)) {
					e.ArxivID = id
				}
			case "doi":
				if id := unquote(value); identifier.Classify(id) == identifier.DOI {
					e.DOI = id
				}
			case "journal":
				if value == `"JCAP"` || value == `"JHEP"` {
					sissa = true
				}
			}
		}
	}

	return finishEntry(e, sissa)
}

func finishEntry(e *Entry, sissa bool) (*Entry, error) {
	if sissa {
		year, ok := e.values["year"]
		if !ok {
			return nil, fmt.Errorf("%w: SISSA journal entry %q has no year field", ErrMalformed, e.Tag)
		}
		e.SetField("number", year)
	}
	return e, nil
}

// unquote strips one surrounding pair of quote or brace characters.
func unquote(value string) string {
	if len(value) < 2 {
		return value
	}
	return value[1 : len(value)-1]
}

// BibTeX serializes the entry: opening marker with the current tag, one
// indented "field = value," line per field in insertion order, no comma
// on the last field, closing brace, trailing newline.
func (e *Entry) BibTeX() string {
	var b strings.Builder
	fmt.Fprintf(&b, "@%s{%s,\n", e.Type, e.Tag)
	for i, name := range e.names {
		fmt.Fprintf(&b, "\t%s = %s", name, e.values[name])
		if i < len(e.names)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("}\n")
	return b.String()
}
