package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/naco0406/simplicity/internal/timeline"
)

var validateCmd = &cobra.Command{
	Use:   "validate <timeline.json>",
	Short: "Validate a timeline file",
	Long: `Validate parses a timeline JSON file and checks its structure: section
contiguity, sentence time windows, and per-kind required fields. On
failure the offending field is named and the exit code is non-zero.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(args[0])
	},
}

func runValidate(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	tl, err := timeline.Parse(data)
	if err != nil {
		return err
	}

	fmt.Printf("%s: valid timeline %q (%d sections, %dms)\n", path, tl.ID, tl.SectionCount(), tl.TotalDuration)
	return nil
}
