package resolver

import (
	"context"
	"fmt"
	"testing"

	"github.com/pcox/bibsync/internal/bibtex"
	"github.com/pcox/bibsync/internal/identifier"
	"github.com/pcox/bibsync/internal/inspire"
)

// fakeFetcher serves canned BibTeX payloads by token and records the
// order of fetches.
type fakeFetcher struct {
	records map[string]string
	fetched []string
}

func (f *fakeFetcher) FetchBibTeX(ctx context.Context, token string, scheme identifier.Scheme) (string, error) {
	f.fetched = append(f.fetched, token)
	if raw, ok := f.records[token]; ok {
		return raw, nil
	}
	return "", inspire.ErrNotFound
}

// coxRecord is a work citable as texkey, arXiv id, or DOI.
const coxRecord = `@article{Cox:2020abc,
	author = "Cox, Peter",
	eprint = "2109.12345",
	doi = "10.1103/PhysRevD.1",
	year = "2021"
}
`

func coxFetcher() *fakeFetcher {
	return &fakeFetcher{records: map[string]string{
		"Cox:2020abc":        coxRecord,
		"2109.12345":         coxRecord,
		"10.1103/PhysRevD.1": coxRecord,
	}}
}

func mustStore(t *testing.T, raws ...string) *bibtex.Store {
	t.Helper()
	s := bibtex.NewStore()
	for _, raw := range raws {
		e, err := bibtex.Parse(raw)
		if err != nil {
			t.Fatal(err)
		}
		s.Add(e)
	}
	return s
}

func TestResolve_CanonicalizationMergesSchemes(t *testing.T) {
	fetch := coxFetcher()
	tokens := []string{"Cox:2020abc", "2109.12345"}

	res, err := Resolve(context.Background(), tokens, bibtex.NewStore(), nil, fetch, DefaultOptions())
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}

	if len(res.Staged) != 1 {
		t.Fatalf("Staged = %d entries, want 1", len(res.Staged))
	}
	if res.Staged[0].Tag != "Cox:2020abc" {
		t.Errorf("staged tag = %q, want Cox:2020abc", res.Staged[0].Tag)
	}
	if got := res.Renames["2109.12345"]; got != "Cox:2020abc" {
		t.Errorf("Renames[2109.12345] = %q, want Cox:2020abc", got)
	}
	if _, ok := res.Renames["Cox:2020abc"]; ok {
		t.Error("canonical token must not rename itself")
	}

	// The arXiv sibling was absorbed by the merge, not re-fetched.
	if len(fetch.fetched) != 1 {
		t.Errorf("fetched %v, want a single fetch", fetch.fetched)
	}
}

func TestResolve_ArxivPreference(t *testing.T) {
	fetch := coxFetcher()
	tokens := []string{"Cox:2020abc", "2109.12345"}
	opts := DefaultOptions()
	opts.Preference = []IDClass{ClassArxiv, ClassTexkey, ClassDOI}

	res, err := Resolve(context.Background(), tokens, bibtex.NewStore(), nil, fetch, opts)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}

	if len(res.Staged) != 1 || res.Staged[0].Tag != "2109.12345" {
		t.Fatalf("staged = %+v, want one entry tagged 2109.12345", res.Staged)
	}
	if got := res.Renames["Cox:2020abc"]; got != "2109.12345" {
		t.Errorf("Renames[Cox:2020abc] = %q, want 2109.12345", got)
	}
}

func TestResolve_RequireCited(t *testing.T) {
	// Only the arXiv id is cited; with the cited-elsewhere restriction
	// the texkey cannot be chosen even though it is preferred.
	fetch := coxFetcher()
	tokens := []string{"2109.12345"}

	res, err := Resolve(context.Background(), tokens, bibtex.NewStore(), nil, fetch, DefaultOptions())
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}

	if len(res.Staged) != 1 || res.Staged[0].Tag != "2109.12345" {
		t.Fatalf("staged tag = %q, want the cited arXiv id", res.Staged[0].Tag)
	}
	if len(res.Renames) != 0 {
		t.Errorf("Renames = %v, want empty", res.Renames)
	}

	// Without the restriction the preferred texkey wins.
	opts := DefaultOptions()
	opts.RequireCited = false
	res, err = Resolve(context.Background(), tokens, bibtex.NewStore(), nil, coxFetcher(), opts)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if res.Staged[0].Tag != "Cox:2020abc" {
		t.Errorf("staged tag = %q, want Cox:2020abc", res.Staged[0].Tag)
	}
	if got := res.Renames["2109.12345"]; got != "Cox:2020abc" {
		t.Errorf("Renames[2109.12345] = %q, want Cox:2020abc", got)
	}
}

func TestResolve_ForcedScheme(t *testing.T) {
	fetch := coxFetcher()
	tokens := []string{"Cox:2020abc"}
	opts := DefaultOptions()
	opts.Force = ClassDOI

	res, err := Resolve(context.Background(), tokens, bibtex.NewStore(), nil, fetch, opts)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}

	if len(res.Staged) != 1 || res.Staged[0].Tag != "10.1103/PhysRevD.1" {
		t.Fatalf("staged tag = %q, want the DOI", res.Staged[0].Tag)
	}
	if got := res.Renames["Cox:2020abc"]; got != "10.1103/PhysRevD.1" {
		t.Errorf("Renames[Cox:2020abc] = %q, want the DOI", got)
	}
}

func TestResolve_ForcedSchemeSkipLogic(t *testing.T) {
	bib := mustStore(t, coxRecord)
	opts := DefaultOptions()
	opts.Force = ClassArxiv

	// Tag present in the bib but not arXiv-shaped: refetched and
	// converted despite being "already resolved".
	fetch := coxFetcher()
	res, err := Resolve(context.Background(), []string{"Cox:2020abc"}, bib, nil, fetch, opts)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if len(fetch.fetched) != 1 {
		t.Fatalf("forced scheme should refetch non-conforming tokens, fetched %v", fetch.fetched)
	}
	if got := res.Renames["Cox:2020abc"]; got != "2109.12345" {
		t.Errorf("Renames[Cox:2020abc] = %q, want 2109.12345", got)
	}

	// An already-conforming token in the bib is skipped.
	bib2 := mustStore(t, "@article{2109.12345,\n\teprint = \"2109.12345\"\n}\n")
	fetch2 := coxFetcher()
	res2, err := Resolve(context.Background(), []string{"2109.12345"}, bib2, nil, fetch2, opts)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if len(fetch2.fetched) != 0 {
		t.Errorf("conforming token should be skipped, fetched %v", fetch2.fetched)
	}
	if len(res2.Staged) != 0 || len(res2.Renames) != 0 {
		t.Errorf("conforming token produced output: %+v", res2)
	}
}

func TestResolve_Idempotence(t *testing.T) {
	tokens := []string{"Cox:2020abc", "2109.12345"}
	bib := bibtex.NewStore()

	res, err := Resolve(context.Background(), tokens, bib, nil, coxFetcher(), DefaultOptions())
	if err != nil {
		t.Fatalf("first Resolve() error: %v", err)
	}

	// Apply the run: staged entries land in the bibliography and the
	// document's tokens are rewritten.
	for _, e := range res.Staged {
		bib.Add(e)
	}
	var second []string
	for _, tok := range tokens {
		if to, ok := res.Renames[tok]; ok {
			tok = to
		}
		second = append(second, tok)
	}

	res2, err := Resolve(context.Background(), second, bib, nil, coxFetcher(), DefaultOptions())
	if err != nil {
		t.Fatalf("second Resolve() error: %v", err)
	}
	if len(res2.Staged) != 0 {
		t.Errorf("second run staged %d entries, want 0", len(res2.Staged))
	}
	if len(res2.Renames) != 0 {
		t.Errorf("second run renames = %v, want empty", res2.Renames)
	}
}

func TestResolve_FallbackStore(t *testing.T) {
	fallback := mustStore(t, "@book{WeinbergQFT,\n\tauthor = \"Weinberg, Steven\"\n}\n")
	fetch := &fakeFetcher{records: map[string]string{}}

	res, err := Resolve(context.Background(), []string{"WeinbergQFT"}, bibtex.NewStore(), fallback, fetch, DefaultOptions())
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}

	if len(res.Staged) != 1 || res.Staged[0].Tag != "WeinbergQFT" {
		t.Fatalf("fallback entry not staged: %+v", res.Staged)
	}
	if res.Staged[0].Type != "book" {
		t.Errorf("fallback entry type = %q, want book (staged verbatim)", res.Staged[0].Type)
	}
	if len(res.Unresolved) != 0 {
		t.Errorf("Unresolved = %v, want empty when the fallback serves the token", res.Unresolved)
	}
	if len(res.Fallback) != 1 || res.Fallback[0] != "WeinbergQFT" {
		t.Errorf("Fallback = %v, want [WeinbergQFT]", res.Fallback)
	}
}

func TestResolve_UnresolvedToken(t *testing.T) {
	res, err := Resolve(context.Background(), []string{"Mystery:2020zz", "2109.12345"}, bibtex.NewStore(), nil,
		&fakeFetcher{records: map[string]string{"2109.12345": coxRecord}}, DefaultOptions())
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}

	if len(res.Unresolved) != 1 || res.Unresolved[0] != "Mystery:2020zz" {
		t.Fatalf("Unresolved = %v, want [Mystery:2020zz]", res.Unresolved)
	}
	// Processing continues past the unresolved token.
	if len(res.Staged) != 1 {
		t.Errorf("Staged = %d entries, want 1", len(res.Staged))
	}
}

func TestResolve_SkipsExistingEntries(t *testing.T) {
	bib := mustStore(t, coxRecord)
	fetch := coxFetcher()

	res, err := Resolve(context.Background(), []string{"Cox:2020abc"}, bib, nil, fetch, DefaultOptions())
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if len(fetch.fetched) != 0 {
		t.Errorf("existing token fetched: %v", fetch.fetched)
	}
	if len(res.Staged) != 0 || len(res.Renames) != 0 {
		t.Errorf("existing token produced output: %+v", res)
	}
}

func TestResolve_OverwriteRefetches(t *testing.T) {
	bib := mustStore(t, coxRecord)
	fetch := coxFetcher()
	opts := DefaultOptions()
	opts.Overwrite = true

	_, err := Resolve(context.Background(), []string{"Cox:2020abc"}, bib, nil, fetch, opts)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if len(fetch.fetched) != 1 {
		t.Errorf("overwrite should refetch, fetched %v", fetch.fetched)
	}
}

func TestResolve_FetchOrderFollowsDocument(t *testing.T) {
	records := make(map[string]string)
	var tokens []string
	for i := 0; i < 5; i++ {
		tag := fmt.Sprintf("Author-%c:2020ab", 'a'+i)
		records[tag] = fmt.Sprintf("@article{%s,\n\tyear = \"2020\"\n}\n", tag)
		tokens = append(tokens, tag)
	}
	fetch := &fakeFetcher{records: records}

	if _, err := Resolve(context.Background(), tokens, bibtex.NewStore(), nil, fetch, DefaultOptions()); err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}

	for i, tok := range tokens {
		if fetch.fetched[i] != tok {
			t.Fatalf("fetch order %v does not follow document order %v", fetch.fetched, tokens)
		}
	}
}

func TestResolve_NoIdentifiersUsesToken(t *testing.T) {
	raw := "@article{plainkey,\n\tyear = \"2020\"\n}\n"
	fetch := &fakeFetcher{records: map[string]string{"plainkey": raw}}

	res, err := Resolve(context.Background(), []string{"plainkey"}, bibtex.NewStore(), nil, fetch, DefaultOptions())
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if len(res.Staged) != 1 || res.Staged[0].Tag != "plainkey" {
		t.Fatalf("staged tag = %q, want the fetch token", res.Staged[0].Tag)
	}
	if len(res.Renames) != 0 {
		t.Errorf("Renames = %v, want empty", res.Renames)
	}
}
