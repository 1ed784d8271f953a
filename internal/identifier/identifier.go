// Package identifier classifies citation tokens into identifier schemes.
package identifier

import "regexp"

// Scheme is the identifier scheme a citation token belongs to.
type Scheme int

const (
	// Unknown means the token matches no recognized scheme.
	Unknown Scheme = iota

	// ArxivNew is a modern arXiv identifier, e.g. "2109.12345".
	ArxivNew

	// ArxivOld is a pre-2007 arXiv identifier, e.g. "hep-th/9901001".
	ArxivOld

	// Texkey is an INSPIRE texkey, e.g. "Cox:2020abc".
	Texkey

	// DOI is a digital object identifier, e.g. "10.1103/PhysRevD.1".
	DOI
)

// Identifier patterns. The separator in new-style arXiv identifiers is
// deliberately any character: INSPIRE records occasionally carry a
// non-dot separator and the surrounding digit counts disambiguate.
var (
	arxivNewRe = regexp.MustCompile(`^\d{4}.\d{4,5}$`)
	arxivOldRe = regexp.MustCompile(`(?i)^[a-z.\-]+/[09]\d{6}$`)
	texkeyRe   = regexp.MustCompile(`^[a-zA-Z\-]+:\d{4}[a-z]{2,3}$`)
	doiRe      = regexp.MustCompile(`^10\.[0-9.]{4,}/\w+`)
)

// Classify returns the scheme a token belongs to. It is pure and total.
// The patterns are disjoint over well-formed input; on adversarial input
// the match order below fixes the priority.
func Classify(token string) Scheme {
	switch {
	case arxivNewRe.MatchString(token):
		return ArxivNew
	case arxivOldRe.MatchString(token):
		return ArxivOld
	case texkeyRe.MatchString(token):
		return Texkey
	case doiRe.MatchString(token):
		return DOI
	default:
		return Unknown
	}
}

// IsArxiv reports whether s is either arXiv scheme.
func IsArxiv(s Scheme) bool {
	return s == ArxivNew || s == ArxivOld
}

// String returns the scheme name as used in INSPIRE API paths.
func (s Scheme) String() string {
	switch s {
	case ArxivNew, ArxivOld:
		return "arxiv"
	case Texkey:
		return "texkey"
	case DOI:
		return "doi"
	default:
		return "unknown"
	}
}
