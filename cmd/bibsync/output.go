package main

import (
	"encoding/json"
	"fmt"
	"os"
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// warnf writes a warning line to stderr in both output modes.
func warnf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "warning: "+format+"\n", args...)
}

// exitWithError outputs an error in the appropriate format and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// GenResult is the response of the gen command.
type GenResult struct {
	Citations  int               `json:"citations"`
	Written    int               `json:"written"`
	BibFile    string            `json:"bib_file"`
	Renames    map[string]string `json:"renames,omitempty"`
	Fallback   []string          `json:"fallback,omitempty"`
	Unresolved []string          `json:"unresolved,omitempty"`
	Rewritten  bool              `json:"rewritten,omitempty"`
}

// ConvertResult is the response of the convert command.
type ConvertResult struct {
	Renames   map[string]string `json:"renames"`
	Rewritten bool              `json:"rewritten"`
}

// DOIResult is the response of the doi command.
type DOIResult struct {
	DOI      string `json:"doi"`
	Tag      string `json:"tag"`
	BibTeX   string `json:"bibtex"`
	Appended string `json:"appended_to,omitempty"`
}
