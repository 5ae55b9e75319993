// Package main provides the entry point for the candidate search service.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "cv_search",
	Short: "Candidate search and ranking service",
	Long:  "cv_search ranks candidate records against role requirements by combining rarity-weighted lexical evidence with LLM verdicts, exposed over a REST API and a CLI.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "cv_search.json", "Path to the JSON config file")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
