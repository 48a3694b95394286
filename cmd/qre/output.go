package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/MKhiriev/qre-core/internal/app"
	"github.com/MKhiriev/qre-core/internal/utils"
	"github.com/MKhiriev/qre-core/models"
)

var (
	successColor = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed)
	warnColor    = color.New(color.FgYellow, color.Bold)
)

func printSuccess(format string, args ...any) {
	successColor.Fprintf(os.Stdout, "✓ "+format+"\n", args...)
}

func printError(format string, args ...any) {
	errorColor.Fprintf(os.Stderr, "✗ "+format+"\n", args...)
}

func printWarning(format string, args ...any) {
	warnColor.Fprintf(os.Stderr, format+"\n", args...)
}

func printResults(results []models.BatchItemResult) error {
	failed := 0
	for _, res := range results {
		if res.Success {
			printSuccess("%s: %s", res.Name, res.Message)
			continue
		}
		failed++
		printError("%s: %s", res.Name, res.Message)
		if res.Err != nil {
			if hint := app.Describe(res.Err); hint != "" {
				printWarning("  %s", hint)
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(results))
	}
	return nil
}

func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)

	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)

	if err != nil {
		return "", err
	}
	return string(password), nil
}

// promptNewPassword asks twice and requires both entries to match.
func promptNewPassword() (string, error) {
	first, err := promptPassword("New password: ")
	if err != nil {
		return "", err
	}
	second, err := promptPassword("Repeat password: ")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", errors.New("passwords do not match")
	}
	return first, nil
}

// readKeyfile returns the keyfile digest, or nil when path is empty.
func readKeyfile(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	digest, err := utils.KeyfileDigest(path)
	if err != nil {
		return nil, fmt.Errorf("read keyfile: %w", err)
	}
	return digest, nil
}
