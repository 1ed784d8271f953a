// Package main provides the bibsync CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "bibsync",
	Short: "Keep TeX citations and their BibTeX bibliography in sync with INSPIRE",
	Long: `bibsync maintains consistency between a TeX document's \cite markers
and its BibTeX bibliography.

Core features:
  - Generate or update a .bib file from the \cite commands in a document
  - Resolve citations against INSPIRE by arXiv id, texkey, or DOI
  - Deduplicate works cited under several identifier schemes, rewriting
    the document to a single canonical identifier per work
  - Serve registry-unknown works from a manual bibliography
  - Look up a paper's record from the DOI printed in its PDF

Commands output JSON by default; use --human for plain text.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.Version = Version
}
