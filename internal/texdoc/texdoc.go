// Package texdoc extracts citation tokens from TeX documents and
// rewrites their \cite markers.
package texdoc

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const citeMarker = `\cite{`

// ExtractTokens returns the document's citation tokens in first
// occurrence order with duplicates removed. Comment lines are skipped
// entirely. Tokens are the comma-separated arguments of \cite markers,
// whitespace-trimmed; a leading * (natbib starred keys) is stripped and
// empty tokens are dropped.
func ExtractTokens(text string) []string {
	var tokens []string
	seen := make(map[string]bool)

	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "%") {
			continue
		}
		for _, tok := range lineTokens(line) {
			tok = strings.TrimPrefix(tok, "*")
			if tok == "" || seen[tok] {
				continue
			}
			seen[tok] = true
			tokens = append(tokens, tok)
		}
	}

	return tokens
}

// lineTokens returns the trimmed, non-empty citation arguments of one
// line, left to right.
func lineTokens(line string) []string {
	var tokens []string
	for _, cite := range strings.Split(line, citeMarker)[1:] {
		group, _, _ := strings.Cut(cite, "}")
		for _, tok := range strings.Split(group, ",") {
			if tok = strings.TrimSpace(tok); tok != "" {
				tokens = append(tokens, tok)
			}
		}
	}
	return tokens
}

// ApplyRenames replaces renamed citation tokens throughout the
// document. For each non-comment line, every token of that line's \cite
// markers that appears in the rename map is substituted across the
// whole line. The replacement is a plain substring substitution, so
// non-citation text on the same line that happens to contain the token
// is rewritten too; this matches the historical behavior this tool
// replaces.
func ApplyRenames(text string, renames map[string]string) string {
	if len(renames) == 0 {
		return text
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, "%") {
			continue
		}
		for _, tok := range lineTokens(line) {
			tok = strings.TrimPrefix(tok, "*")
			if to, ok := renames[tok]; ok {
				line = strings.ReplaceAll(line, tok, to)
			}
		}
		lines[i] = line
	}

	return strings.Join(lines, "\n")
}

// RewriteFile applies the rename map to a document on disk. The rewrite
// is all or nothing: the new content is written to a temporary file and
// renamed over the original, so a failure leaves the document untouched.
func RewriteFile(path string, renames map[string]string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading document: %w", err)
	}

	out := ApplyRenames(string(data), renames)

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(out); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing document: %w", err)
	}
	return nil
}
