package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestStdinConfirm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"yes", "y\n", true},
		{"no", "n\n", false},
		{"retry until valid", "maybe\nyes\ny\n", true},
		{"eof is no", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			confirm := stdinConfirm(strings.NewReader(tt.input), &out)
			if got := confirm("Overwrite?"); got != tt.want {
				t.Errorf("confirm() = %v, want %v", got, tt.want)
			}
			if !strings.Contains(out.String(), "Overwrite? (y/n):") {
				t.Errorf("prompt not written: %q", out.String())
			}
		})
	}
}

func TestAlwaysYes(t *testing.T) {
	if !alwaysYes("anything") {
		t.Error("alwaysYes should confirm")
	}
}
