// Package config handles project configuration for bibsync.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pcox/bibsync/internal/resolver"
)

// DefaultFile is the configuration file looked up next to the document.
const DefaultFile = ".bibsync.yml"

// DefaultFallbackFile is the manual bibliography consulted for works
// the registry does not know.
const DefaultFallbackFile = "noinspire.bib"

// Config is the optional per-project configuration. Zero values mean
// "use the built-in default"; command-line flags override everything.
type Config struct {
	// Preference is the canonicalization order, e.g. [texkey, arxiv, doi].
	Preference []string `yaml:"preference"`

	// RequireCited restricts canonical identifiers to ones the
	// document cites. Defaults to true when unset.
	RequireCited *bool `yaml:"require_cited"`

	BibFile      string `yaml:"bib_file"`
	FallbackFile string `yaml:"fallback_file"`
	CacheFile    string `yaml:"cache_file"`
	BaseURL      string `yaml:"base_url"`
}

// Load reads and validates the configuration at the given path. A
// missing file yields the zero config, not an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if _, err := ParsePreference(cfg.Preference); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &cfg, nil
}

// ParsePreference converts preference names into resolver classes. An
// empty list returns nil, leaving the resolver default in force.
func ParsePreference(names []string) ([]resolver.IDClass, error) {
	if len(names) == 0 {
		return nil, nil
	}

	classes := make([]resolver.IDClass, 0, len(names))
	seen := make(map[resolver.IDClass]bool)
	for _, name := range names {
		class, err := ParseClass(name)
		if err != nil {
			return nil, err
		}
		if seen[class] {
			return nil, fmt.Errorf("duplicate preference entry %q", name)
		}
		seen[class] = true
		classes = append(classes, class)
	}
	return classes, nil
}

// ParseClass converts a scheme name into a resolver class.
func ParseClass(name string) (resolver.IDClass, error) {
	switch name {
	case "texkey":
		return resolver.ClassTexkey, nil
	case "arxiv":
		return resolver.ClassArxiv, nil
	case "doi":
		return resolver.ClassDOI, nil
	default:
		return resolver.ClassNone, fmt.Errorf("unknown identifier scheme %q (valid: texkey, arxiv, doi)", name)
	}
}
