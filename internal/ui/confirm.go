package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Confirm prompts the user with a yes/no question. Returns true for yes.
func Confirm(prompt string) bool {
	return ConfirmFrom(os.Stdin, os.Stdout, StyleWarning.Render(prompt))
}

// ConfirmDanger is like Confirm but styled with the error color (for destructive actions).
func ConfirmDanger(prompt string) bool {
	return ConfirmFrom(os.Stdin, os.Stdout, StyleError.Render("⚠ "+prompt))
}

// ConfirmFrom asks prompt on w and reads the answer from r. Anything other
// than y/yes, including EOF, is a no.
func ConfirmFrom(r io.Reader, w io.Writer, prompt string) bool {
	fmt.Fprintf(w, "%s [y/N]: ", prompt)
	line, _ := bufio.NewReader(r).ReadString('\n')
	line = strings.TrimSpace(strings.ToLower(line))
	return line == "y" || line == "yes"
}

// PromptInput asks for a line of text on stdout and returns it trimmed.
func PromptInput(prompt string) string {
	return PromptInputFrom(os.Stdin, os.Stdout, prompt)
}

// PromptInputFrom is PromptInput with explicit streams.
func PromptInputFrom(r io.Reader, w io.Writer, prompt string) string {
	fmt.Fprintf(w, "%s: ", StyleValue.Render(prompt))
	line, _ := bufio.NewReader(r).ReadString('\n')
	return strings.TrimSpace(line)
}
