package bibtex

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Store is an ordered collection of entries keyed by tag. Order is
// first-seen order in the source file and is preserved on write.
type Store struct {
	entries []*Entry
	index   map[string]int
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{index: make(map[string]int)}
}

// Load reads a bibliography file. Every line starting with @ begins a
// new entry accumulation that runs until the next @ line or end of file.
func Load(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening bib file: %w", err)
	}
	defer f.Close()

	s := NewStore()
	var block []string
	inEntry := false

	flush := func() error {
		if !inEntry {
			return nil
		}
		entry, err := Parse(strings.Join(block, "\n"))
		if err != nil {
			return err
		}
		s.Add(entry)
		block = block[:0]
		return nil
	}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "@") {
			if err := flush(); err != nil {
				return nil, err
			}
			inEntry = true
			block = append(block[:0], line)
		} else if inEntry {
			block = append(block, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading bib file: %w", err)
	}
	if err := flush(); err != nil {
		return nil, err
	}

	return s, nil
}

// Add inserts an entry. A repeated tag replaces the existing entry in
// place without changing its position.
func (s *Store) Add(e *Entry) {
	if i, ok := s.index[e.Tag]; ok {
		s.entries[i] = e
		return
	}
	s.index[e.Tag] = len(s.entries)
	s.entries = append(s.entries, e)
}

// Contains reports whether a tag is present.
func (s *Store) Contains(tag string) bool {
	_, ok := s.index[tag]
	return ok
}

// Get returns the entry for a tag, or nil.
func (s *Store) Get(tag string) *Entry {
	if i, ok := s.index[tag]; ok {
		return s.entries[i]
	}
	return nil
}

// Tags returns all tags in store order.
func (s *Store) Tags() []string {
	tags := make([]string, len(s.entries))
	for i, e := range s.entries {
		tags[i] = e.Tag
	}
	return tags
}

// Entries returns the entries in store order.
func (s *Store) Entries() []*Entry {
	out := make([]*Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of entries.
func (s *Store) Len() int {
	return len(s.entries)
}

// Save writes the entries in store order, one blank line between
// entries. In append mode the new content is concatenated; existing
// file content is never rewritten or reordered.
func (s *Store) Save(path string, appendMode bool) error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if appendMode {
		flags = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	}

	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return fmt.Errorf("opening bib file for writing: %w", err)
	}
	defer f.Close()

	for i, e := range s.entries {
		if i > 0 || appendMode {
			if _, err := f.WriteString("\n"); err != nil {
				return fmt.Errorf("writing bib file: %w", err)
			}
		}
		if _, err := f.WriteString(e.BibTeX()); err != nil {
			return fmt.Errorf("writing bib file: %w", err)
		}
	}
	return nil
}
