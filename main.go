package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"golang.org/x/term"
)

func main() {
	if err := newRootCmd(newApp()).Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, color.RedString("✗"), err)
		}
		os.Exit(1)
	}
}

// readPassword securely reads a password with masking
func readPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", err
	}
	fmt.Fprintln(os.Stderr) // Add newline after password input
	return strings.TrimSpace(string(bytePassword)), nil
}

func truncateString(s string, maxLength int) string {
	r := []rune(s)
	if len(r) <= maxLength {
		return s
	}
	return string(r[:maxLength-3]) + "..."
}
