package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/pcox/bibsync/internal/bibtex"
	"github.com/pcox/bibsync/internal/config"
	"github.com/pcox/bibsync/internal/inspire"
	"github.com/pcox/bibsync/internal/resolver"
	"github.com/pcox/bibsync/internal/texdoc"
)

var (
	genAppend         bool
	genBibFile        string
	genFallbackFile   string
	genForce          string
	genPrefer         string
	genNoRequireCited bool
	genCacheFile      string
	genNoCache        bool
	genYes            bool
	genRewrite        bool
)

func init() {
	_ = godotenv.Load()

	rootCmd.AddCommand(genCmd)
	genCmd.Flags().BoolVarP(&genAppend, "append", "a", false, "Append new references to the existing bib file")
	genCmd.Flags().StringVar(&genBibFile, "bib", "", "Bibliography file path (default: document path with .bib extension)")
	genCmd.Flags().StringVar(&genFallbackFile, "fallback", "", "Manual bibliography for works not on INSPIRE (default: noinspire.bib)")
	genCmd.Flags().StringVar(&genForce, "force", "", "Force the canonical identifier scheme (arxiv, texkey, or doi)")
	genCmd.Flags().StringVar(&genPrefer, "prefer", "", "Canonicalization order, comma-separated (default: texkey,arxiv,doi)")
	genCmd.Flags().BoolVar(&genNoRequireCited, "no-require-cited", false, "Allow canonical identifiers the document does not cite")
	genCmd.Flags().StringVar(&genCacheFile, "cache", "", "SQLite cache for fetched records")
	genCmd.Flags().BoolVar(&genNoCache, "no-cache", false, "Bypass the fetch cache")
	genCmd.Flags().BoolVar(&genYes, "yes", false, "Skip overwrite confirmation prompts")
	genCmd.Flags().BoolVar(&genRewrite, "rewrite", false, "Rewrite the document's \\cite markers to canonical identifiers")
}

var genCmd = &cobra.Command{
	Use:   "gen <texfile>",
	Short: "Generate or update the bibliography for a TeX document",
	Long: `Parse a TeX document for \cite commands and download citation records
from INSPIRE. Citations may use an arXiv identifier, INSPIRE texkey, or
DOI; works cited under several schemes are merged onto one canonical
identifier.

With --append, new references are added to the existing bib file and
already-present citations are left alone. Without it the bib file is
rewritten from scratch (after confirmation).

References not on INSPIRE are taken from the manual bibliography
(noinspire.bib by default) when present there.

Examples:
  bibsync gen paper.tex                 # Write paper.bib
  bibsync gen paper.tex --append        # Add newly cited works only
  bibsync gen paper.tex --rewrite       # Also canonicalize \cite markers
  bibsync gen paper.tex --force arxiv   # Pin canonical ids to arXiv`,
	Args: cobra.ExactArgs(1),
	RunE: runGen,
}

func runGen(cmd *cobra.Command, args []string) error {
	texFile := args[0]
	if !strings.HasSuffix(texFile, ".tex") {
		exitWithError(ExitFileError, "'%s' is not a valid tex file", texFile)
	}
	if _, err := os.Stat(texFile); err != nil {
		exitWithError(ExitFileError, "'%s' is not a valid tex file", texFile)
	}

	cfg, err := config.Load(filepath.Join(filepath.Dir(texFile), config.DefaultFile))
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	bibFile := strings.TrimSuffix(texFile, ".tex") + ".bib"
	if cfg.BibFile != "" {
		bibFile = cfg.BibFile
	}
	if genBibFile != "" {
		bibFile = genBibFile
	}
	if !strings.HasSuffix(bibFile, ".bib") {
		exitWithError(ExitFileError, "'%s' is not a valid bib file", bibFile)
	}

	confirm := stdinConfirm(os.Stdin, os.Stderr)
	if genYes {
		confirm = alwaysYes
	}

	if !genAppend {
		if _, err := os.Stat(bibFile); err == nil {
			if !confirm(fmt.Sprintf("Warning: this will overwrite %s. Do you want to continue?", bibFile)) {
				return nil
			}
		}
	}

	// In append mode the existing bibliography decides what is already
	// resolved; a fresh run starts from nothing.
	bib := bibtex.NewStore()
	if genAppend {
		if bib, err = bibtex.Load(bibFile); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				bib = bibtex.NewStore()
			} else {
				exitWithError(ExitDataError, "loading %s: %v", bibFile, err)
			}
		}
	}

	fallback := loadFallback(texFile, cfg)

	opts, err := genOptions(cfg)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	fetch, cleanup, err := buildFetcher(cfg)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	defer cleanup()

	data, err := os.ReadFile(texFile)
	if err != nil {
		exitWithError(ExitFileError, "reading %s: %v", texFile, err)
	}
	tokens := texdoc.ExtractTokens(string(data))
	if humanOutput {
		fmt.Printf("Found %d references.\n", len(tokens))
	}

	res, err := resolver.Resolve(context.Background(), tokens, bib, fallback, fetch, opts)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	for _, tok := range res.Fallback {
		warnf("no INSPIRE record for %s, using manual bibliography entry", tok)
	}
	for _, tok := range res.Unresolved {
		warnf("could not find reference for %s, skipping", tok)
	}

	if len(res.Staged) > 0 || !genAppend {
		out := bibtex.NewStore()
		for _, e := range res.Staged {
			out.Add(e)
		}
		if err := out.Save(bibFile, genAppend); err != nil {
			exitWithError(ExitError, "%v", err)
		}
	}

	rewritten := false
	if genRewrite && len(res.Renames) > 0 {
		if confirm(fmt.Sprintf("Warning: this will overwrite %s. Do you want to continue?", texFile)) {
			if err := texdoc.RewriteFile(texFile, res.Renames); err != nil {
				exitWithError(ExitError, "%v", err)
			}
			rewritten = true
		}
	}

	result := GenResult{
		Citations:  len(tokens),
		Written:    len(res.Staged),
		BibFile:    bibFile,
		Renames:    res.Renames,
		Fallback:   res.Fallback,
		Unresolved: res.Unresolved,
		Rewritten:  rewritten,
	}
	if humanOutput {
		printGenResultHuman(result)
		return nil
	}
	return outputJSON(result)
}

// loadFallback loads the manual bibliography if one exists. A missing
// file just means no fallback entries.
func loadFallback(texFile string, cfg *config.Config) *bibtex.Store {
	path := filepath.Join(filepath.Dir(texFile), config.DefaultFallbackFile)
	if cfg.FallbackFile != "" {
		path = cfg.FallbackFile
	}
	if genFallbackFile != "" {
		path = genFallbackFile
	}

	fallback, err := bibtex.Load(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			exitWithError(ExitDataError, "loading %s: %v", path, err)
		}
		return nil
	}
	return fallback
}

// genOptions assembles resolver options from config and flags.
func genOptions(cfg *config.Config) (resolver.Options, error) {
	opts := resolver.DefaultOptions()
	opts.Overwrite = !genAppend

	if pref, err := config.ParsePreference(cfg.Preference); err == nil && pref != nil {
		opts.Preference = pref
	}
	if genPrefer != "" {
		pref, err := config.ParsePreference(strings.Split(genPrefer, ","))
		if err != nil {
			return opts, err
		}
		opts.Preference = pref
	}

	if cfg.RequireCited != nil {
		opts.RequireCited = *cfg.RequireCited
	}
	if genNoRequireCited {
		opts.RequireCited = false
	}

	if genForce != "" {
		class, err := config.ParseClass(genForce)
		if err != nil {
			return opts, err
		}
		opts.Force = class
	}

	return opts, nil
}

// buildFetcher creates the INSPIRE client, wrapped in the SQLite fetch
// cache unless disabled. The returned cleanup closes the cache.
func buildFetcher(cfg *config.Config) (resolver.Fetcher, func(), error) {
	var clientOpts []inspire.ClientOption
	if base := os.Getenv("INSPIRE_BASE_URL"); base != "" {
		clientOpts = append(clientOpts, inspire.WithBaseURL(base))
	} else if cfg.BaseURL != "" {
		clientOpts = append(clientOpts, inspire.WithBaseURL(cfg.BaseURL))
	}
	client := inspire.NewClient(clientOpts...)

	cachePath := cfg.CacheFile
	if genCacheFile != "" {
		cachePath = genCacheFile
	}
	if genNoCache || cachePath == "" {
		return client, func() {}, nil
	}

	cache, err := inspire.OpenCache(cachePath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening cache: %w", err)
	}
	return inspire.NewCachingFetcher(client, cache), func() { cache.Close() }, nil
}

// printGenResultHuman prints the gen result in human-readable format.
func printGenResultHuman(r GenResult) {
	fmt.Printf("Wrote %d of %d references to %s\n", r.Written, r.Citations, r.BibFile)
	if len(r.Renames) > 0 {
		fmt.Println("Canonical renames:")
		for from, to := range r.Renames {
			fmt.Printf("  %s -> %s\n", from, to)
		}
		if r.Rewritten {
			fmt.Println("Document updated.")
		}
	}
	if len(r.Unresolved) > 0 {
		fmt.Printf("Unresolved: %s\n", strings.Join(r.Unresolved, ", "))
	}
}
