package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pcox/bibsync/internal/bibtex"
	"github.com/pcox/bibsync/internal/identifier"
	"github.com/pcox/bibsync/internal/inspire"
	"github.com/pcox/bibsync/internal/pdfdoi"
)

var (
	doiAppend  bool
	doiBibFile string
)

func init() {
	rootCmd.AddCommand(doiCmd)
	doiCmd.Flags().BoolVar(&doiAppend, "append", false, "Append the record to the bibliography")
	doiCmd.Flags().StringVar(&doiBibFile, "bib", "", "Bibliography file to append to (required with --append)")
}

var doiCmd = &cobra.Command{
	Use:   "doi <file.pdf>",
	Short: "Look up a paper's INSPIRE record from the DOI in its PDF",
	Long: `Extract the DOI printed in the opening pages of an article PDF and
fetch the matching BibTeX record from INSPIRE.

Examples:
  bibsync doi paper.pdf
  bibsync doi paper.pdf --append --bib refs.bib`,
	Args: cobra.ExactArgs(1),
	RunE: runDOI,
}

func runDOI(cmd *cobra.Command, args []string) error {
	pdfFile := args[0]
	if !strings.HasSuffix(pdfFile, ".pdf") {
		exitWithError(ExitFileError, "'%s' is not a valid pdf file", pdfFile)
	}
	if _, err := os.Stat(pdfFile); err != nil {
		exitWithError(ExitFileError, "'%s' is not a valid pdf file", pdfFile)
	}
	if doiAppend && doiBibFile == "" {
		exitWithError(ExitError, "--append requires --bib")
	}

	doi, err := pdfdoi.ExtractDOI(pdfFile)
	if err != nil {
		exitWithError(ExitError, "reading %s: %v", pdfFile, err)
	}
	if doi == "" {
		exitWithError(ExitDataError, "no DOI found in %s", pdfFile)
	}

	var clientOpts []inspire.ClientOption
	if base := os.Getenv("INSPIRE_BASE_URL"); base != "" {
		clientOpts = append(clientOpts, inspire.WithBaseURL(base))
	}
	client := inspire.NewClient(clientOpts...)

	raw, err := client.FetchBibTeX(context.Background(), doi, identifier.DOI)
	if err != nil {
		if inspire.IsNotFound(err) {
			exitWithError(ExitDataError, "no INSPIRE record for %s", doi)
		}
		exitWithError(ExitError, "%v", err)
	}

	entry, err := bibtex.Parse(raw)
	if err != nil {
		exitWithError(ExitDataError, "parsing record for %s: %v", doi, err)
	}

	result := DOIResult{DOI: doi, Tag: entry.Tag, BibTeX: entry.BibTeX()}

	if doiAppend {
		out := bibtex.NewStore()
		out.Add(entry)
		if err := out.Save(doiBibFile, true); err != nil {
			exitWithError(ExitError, "%v", err)
		}
		result.Appended = doiBibFile
	}

	if humanOutput {
		fmt.Print(entry.BibTeX())
		if result.Appended != "" {
			fmt.Printf("Appended to %s\n", result.Appended)
		}
		return nil
	}
	return outputJSON(result)
}
