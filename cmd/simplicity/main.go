// Package main is the entry point for the simplicity playback service.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "simplicity",
	Short: "Synchronized presentation playback service",
	Long: `Simplicity serves a gallery of narrated presentations and drives their
playback: a timeline of intro, content, and closing sections kept in
sync with the audio position, with sentence-level navigation.`,
}

func main() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(validateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
