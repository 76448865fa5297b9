package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/pmezard/go-difflib/difflib"
)

// ErrDifferences is returned when the two files differ. The caller
// turns it into exit status 1 without an error banner, the way diff
// tools signal drift.
var ErrDifferences = errors.New("differences found")

// RunDiff prints a unified diff of two backup files.
func RunDiff(file1, file2 string) error {
	a, err := os.ReadFile(file1)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", file1, err)
	}
	b, err := os.ReadFile(file2)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", file2, err)
	}

	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(a)),
		B:        difflib.SplitLines(string(b)),
		FromFile: file1,
		ToFile:   file2,
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return fmt.Errorf("failed to compute diff: %w", err)
	}

	if text == "" {
		Printer.Println("No changes detected.")
		return nil
	}
	Printer.Print(text)
	return ErrDifferences
}
