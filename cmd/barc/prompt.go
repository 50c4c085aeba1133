package main

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/term"
)

// promptPassphrase reads a passphrase from the terminal without echo.
// With confirm set it is read twice and both entries must match.
func promptPassphrase(confirm bool) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", usagef("--ask-passphrase needs an interactive terminal")
	}

	passphrase, err := readPassphrase(fd, "Passphrase: ")
	if err != nil {
		return "", err
	}
	if passphrase == "" {
		return "", errors.New("empty passphrase")
	}

	if confirm {
		again, err := readPassphrase(fd, "Confirm passphrase: ")
		if err != nil {
			return "", err
		}
		if again != passphrase {
			return "", errors.New("passphrases do not match")
		}
	}
	return passphrase, nil
}

func readPassphrase(fd int, prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(b), nil
}
