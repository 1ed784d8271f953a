package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// confirmFunc asks the user a yes/no question. The resolver core never
// prompts; commands inject one of these where a destructive overwrite
// needs gating.
type confirmFunc func(question string) bool

// alwaysYes is the confirmation used under --yes.
func alwaysYes(string) bool { return true }

// stdinConfirm prompts on w and reads y/n answers from r until one is
// given.
func stdinConfirm(r io.Reader, w io.Writer) confirmFunc {
	reader := bufio.NewReader(r)
	return func(question string) bool {
		fmt.Fprintf(w, "%s (y/n): ", question)
		for {
			input, err := reader.ReadString('\n')
			if err != nil {
				return false
			}
			switch strings.TrimSpace(input) {
			case "y":
				return true
			case "n":
				return false
			}
			fmt.Fprint(w, "Please answer y or n: ")
		}
	}
}
