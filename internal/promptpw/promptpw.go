// Package promptpw prompts for a password on the controlling terminal
// without echoing it.
package promptpw

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// Prompt writes prompt to stderr and reads a password from the
// terminal with echo disabled. Returns an error if stdin is not a
// terminal (e.g. piped input), since there would be nothing to
// silence.
func Prompt(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	defer fmt.Fprintln(os.Stderr)

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("promptpw: stdin is not a terminal")
	}
	b, err := term.ReadPassword(fd)
	if err != nil {
		return "", fmt.Errorf("promptpw: %w", err)
	}
	return string(b), nil
}
