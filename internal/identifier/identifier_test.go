package identifier

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		token string
		want  Scheme
	}{
		// New-style arXiv identifiers
		{"2109.12345", ArxivNew},
		{"1401.0001", ArxivNew},
		{"9912.99999", ArxivNew},

		// Old-style arXiv identifiers
		{"hep-th/9901001", ArxivOld},
		{"hep-ph/0203079", ArxivOld},
		{"astro-ph.CO/9912001", ArxivOld},
		{"HEP-TH/9901001", ArxivOld}, // case-insensitive

		// INSPIRE texkeys
		{"Cox:2020abc", Texkey},
		{"Aghanim:2018eyx", Texkey},
		{"de-Gouvea:2019abc", Texkey},

		// DOIs
		{"10.1103/PhysRevD.1", DOI},
		{"10.1088/1475-7516", DOI},
		{"10.1016/j.physletb", DOI},
		{"10.1234/", Unknown},   // no suffix after the slash
		{"10.1234/-xy", Unknown}, // suffix must start with a word character

		// Unknowns
		{"not-an-id", Unknown},
		{"", Unknown},
		{"Smith2020", Unknown},
		{"123.45", Unknown},
		{"hep-th/1234567", Unknown}, // first digit must be 0 or 9
		{"Cox:2020a", Unknown},      // suffix too short
		{"Cox:2020abcd", Unknown},   // suffix too long
		{"10.12/x", Unknown},        // registrant too short
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			if got := Classify(tt.token); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.token, got, tt.want)
			}
		})
	}
}

func TestIsArxiv(t *testing.T) {
	if !IsArxiv(ArxivNew) || !IsArxiv(ArxivOld) {
		t.Error("IsArxiv should be true for both arXiv schemes")
	}
	if IsArxiv(Texkey) || IsArxiv(DOI) || IsArxiv(Unknown) {
		t.Error("IsArxiv should be false for non-arXiv schemes")
	}
}

func TestSchemeString(t *testing.T) {
	tests := []struct {
		scheme Scheme
		want   string
	}{
		{ArxivNew, "arxiv"},
		{ArxivOld, "arxiv"},
		{Texkey, "texkey"},
		{DOI, "doi"},
		{Unknown, "unknown"},
	}
	for _, tt := range tests {
		if got := tt.scheme.String(); got != tt.want {
			t.Errorf("Scheme(%d).String() = %q, want %q", tt.scheme, got, tt.want)
		}
	}
}
