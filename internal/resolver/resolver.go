// Package resolver deduplicates document citations against the INSPIRE
// registry and chooses one canonical identifier per work.
package resolver

import (
	"context"
	"fmt"

	"github.com/pcox/bibsync/internal/bibtex"
	"github.com/pcox/bibsync/internal/identifier"
	"github.com/pcox/bibsync/internal/inspire"
)

// Fetcher retrieves the raw BibTeX record for a citation token.
// inspire.Client and inspire.CachingFetcher both satisfy it.
type Fetcher interface {
	FetchBibTeX(ctx context.Context, token string, scheme identifier.Scheme) (string, error)
}

// IDClass groups the identifier schemes a record can be keyed under.
// The two arXiv schemes count as one class: a record carries at most
// one arXiv identifier.
type IDClass int

const (
	ClassNone IDClass = iota
	ClassTexkey
	ClassArxiv
	ClassDOI
)

// String returns the class name as used in flags and config.
func (c IDClass) String() string {
	switch c {
	case ClassTexkey:
		return "texkey"
	case ClassArxiv:
		return "arxiv"
	case ClassDOI:
		return "doi"
	default:
		return "none"
	}
}

// classOf maps a token's scheme to its identifier class.
func classOf(s identifier.Scheme) IDClass {
	switch {
	case s == identifier.Texkey:
		return ClassTexkey
	case identifier.IsArxiv(s):
		return ClassArxiv
	case s == identifier.DOI:
		return ClassDOI
	default:
		return ClassNone
	}
}

// Options configures a resolution run.
type Options struct {
	// Preference is the canonicalization order over identifier
	// classes. Empty means Texkey > Arxiv > DOI.
	Preference []IDClass

	// Force pins the canonical identifier to one class, overriding
	// Preference whenever the record carries that identifier.
	Force IDClass

	// Overwrite disables the skip of tokens already present in the
	// bibliography, refetching everything.
	Overwrite bool

	// RequireCited restricts canonical candidates to identifiers the
	// document actually cites.
	RequireCited bool
}

// DefaultOptions returns the standard resolution options.
func DefaultOptions() Options {
	return Options{
		Preference:   []IDClass{ClassTexkey, ClassArxiv, ClassDOI},
		RequireCited: true,
	}
}

// Result is the outcome of a resolution run. The resolver itself never
// writes files or prompts; the caller applies Staged and Renames.
type Result struct {
	// Staged holds new entries to write, in discovery order, with
	// tags already reassigned to their canonical identifiers.
	Staged []*bibtex.Entry

	// Renames maps document tokens to the canonical tag that should
	// replace them.
	Renames map[string]string

	// Unresolved lists tokens found neither in the registry nor in
	// the manual fallback bibliography.
	Unresolved []string

	// Fallback lists tokens served from the manual bibliography.
	Fallback []string
}

// Resolve processes the document's citation tokens in order. For each
// token it fetches the registry record, picks the canonical identifier,
// records renames for the work's other cited identifiers, and stages
// entries not yet present in the bibliography. Tokens absent from the
// registry fall back to the manual store, then to an unresolved
// warning. Running Resolve again over its own output is a no-op.
func Resolve(ctx context.Context, tokens []string, bib, fallback *bibtex.Store, fetch Fetcher, opts Options) (*Result, error) {
	if len(opts.Preference) == 0 {
		opts.Preference = []IDClass{ClassTexkey, ClassArxiv, ClassDOI}
	}

	cited := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		cited[t] = true
	}

	result := &Result{Renames: make(map[string]string)}
	resolved := make(map[string]bool) // tokens absorbed by an earlier merge
	staged := make(map[string]bool)   // canonical tags staged this run

	for _, t := range tokens {
		if resolved[t] {
			continue
		}

		if !opts.Overwrite && bib != nil && bib.Contains(t) {
			// Already resolved in a prior run. With a forced class the
			// skip applies only when the token itself satisfies it.
			if opts.Force == ClassNone || classOf(identifier.Classify(t)) == opts.Force {
				continue
			}
		}

		raw, err := fetch.FetchBibTeX(ctx, t, identifier.Classify(t))
		if err != nil {
			if !inspire.IsNotFound(err) {
				return nil, fmt.Errorf("fetching %q: %w", t, err)
			}
			if fallback != nil && fallback.Contains(t) {
				if !staged[t] && (bib == nil || !bib.Contains(t)) {
					result.Staged = append(result.Staged, fallback.Get(t))
					staged[t] = true
				}
				result.Fallback = append(result.Fallback, t)
			} else {
				result.Unresolved = append(result.Unresolved, t)
			}
			continue
		}

		entry, err := bibtex.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing record for %q: %w", t, err)
		}

		canonical := chooseCanonical(entry, t, cited, opts)

		// The work's other cited identifiers collapse onto the
		// canonical tag and are never independently fetched.
		for _, class := range []IDClass{ClassTexkey, ClassArxiv, ClassDOI} {
			id := idFor(entry, class)
			if id == "" || id == canonical || !cited[id] {
				continue
			}
			result.Renames[id] = canonical
			resolved[id] = true
		}

		if !staged[canonical] && (bib == nil || !bib.Contains(canonical)) {
			entry.Tag = canonical
			result.Staged = append(result.Staged, entry)
			staged[canonical] = true
		}
		resolved[canonical] = true

		if canonical != t {
			result.Renames[t] = canonical
		}
	}

	return result, nil
}

// idFor returns the record's identifier of the given class, or "".
func idFor(e *bibtex.Entry, class IDClass) string {
	switch class {
	case ClassTexkey:
		return e.Texkey
	case ClassArxiv:
		return e.ArxivID
	case ClassDOI:
		return e.DOI
	default:
		return ""
	}
}

// chooseCanonical picks the canonical tag for a fetched record. A
// forced class wins when the record carries it. Otherwise the
// preference order applies, first restricted to identifiers the
// document cites (the fetch token always qualifies), then
// unrestricted. With no identifiers at all the fetch token stands.
func chooseCanonical(e *bibtex.Entry, t string, cited map[string]bool, opts Options) string {
	if opts.Force != ClassNone {
		if id := idFor(e, opts.Force); id != "" {
			return id
		}
	}

	if opts.RequireCited {
		for _, class := range opts.Preference {
			if id := idFor(e, class); id != "" && cited[id] {
				return id
			}
		}
	}

	for _, class := range opts.Preference {
		if id := idFor(e, class); id != "" {
			return id
		}
	}

	return t
}
