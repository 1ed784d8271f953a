package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pcox/bibsync/internal/bibtex"
	"github.com/pcox/bibsync/internal/config"
	"github.com/pcox/bibsync/internal/resolver"
	"github.com/pcox/bibsync/internal/texdoc"
)

var (
	convertTo  string
	convertYes bool
)

func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.Flags().StringVar(&convertTo, "to", "arxiv", "Target identifier scheme (arxiv, texkey, or doi)")
	convertCmd.Flags().BoolVar(&convertYes, "yes", false, "Skip overwrite confirmation prompt")
}

var convertCmd = &cobra.Command{
	Use:   "convert <texfile> [bibfile]",
	Short: "Rewrite \\cite markers to one identifier scheme, offline",
	Long: `Convert the citation markers in a TeX document to a single identifier
scheme using only the bibliography file, without contacting INSPIRE.

Every bibliography entry whose tag differs from its identifier of the
target scheme contributes a replacement; a work cited by texkey whose
entry carries an eprint field is rewritten to the arXiv identifier, and
so on. Entries lacking the target identifier are left alone.

Examples:
  bibsync convert paper.tex             # texkeys -> arXiv ids, using paper.bib
  bibsync convert paper.tex refs.bib --to doi`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runConvert,
}

func runConvert(cmd *cobra.Command, args []string) error {
	texFile := args[0]
	if !strings.HasSuffix(texFile, ".tex") {
		exitWithError(ExitFileError, "'%s' is not a valid tex file", texFile)
	}
	if _, err := os.Stat(texFile); err != nil {
		exitWithError(ExitFileError, "'%s' is not a valid tex file", texFile)
	}

	bibFile := strings.TrimSuffix(texFile, ".tex") + ".bib"
	if len(args) > 1 {
		bibFile = args[1]
	}
	if !strings.HasSuffix(bibFile, ".bib") {
		exitWithError(ExitFileError, "'%s' is not a valid bib file", bibFile)
	}
	if _, err := os.Stat(bibFile); err != nil {
		exitWithError(ExitFileError, "'%s' is not a valid bib file", bibFile)
	}

	target, err := config.ParseClass(convertTo)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	bib, err := bibtex.Load(bibFile)
	if err != nil {
		exitWithError(ExitDataError, "loading %s: %v", bibFile, err)
	}

	renames := renameMapFor(bib, target)

	result := ConvertResult{Renames: renames}
	if len(renames) == 0 {
		if humanOutput {
			fmt.Println("Nothing to convert.")
			return nil
		}
		return outputJSON(result)
	}

	confirm := stdinConfirm(os.Stdin, os.Stderr)
	if convertYes {
		confirm = alwaysYes
	}
	if humanOutput {
		for from, to := range renames {
			fmt.Printf("  %s -> %s\n", from, to)
		}
	}
	if !confirm(fmt.Sprintf("Warning: this will overwrite %s. Do you want to continue?", texFile)) {
		return nil
	}

	if err := texdoc.RewriteFile(texFile, renames); err != nil {
		exitWithError(ExitError, "%v", err)
	}
	result.Rewritten = true

	if humanOutput {
		fmt.Printf("Updated %s\n", texFile)
		return nil
	}
	return outputJSON(result)
}

// renameMapFor maps each entry tag to its identifier of the target
// class, skipping entries already using it.
func renameMapFor(bib *bibtex.Store, target resolver.IDClass) map[string]string {
	renames := make(map[string]string)
	for _, e := range bib.Entries() {
		var id string
		switch target {
		case resolver.ClassArxiv:
			id = e.ArxivID
		case resolver.ClassTexkey:
			id = e.Texkey
		case resolver.ClassDOI:
			id = e.DOI
		}
		if id != "" && id != e.Tag {
			renames[e.Tag] = id
		}
	}
	return renames
}
