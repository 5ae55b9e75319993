package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/cv-search/internal/artifacts"
	"github.com/jonathan/cv-search/internal/config"
	"github.com/jonathan/cv-search/internal/db"
	"github.com/jonathan/cv-search/internal/llm"
	"github.com/jonathan/cv-search/internal/search"
	"github.com/jonathan/cv-search/internal/types"
)

var (
	searchCriteriaFile string
	searchRawTextFile  string
	searchTopK         int
)

var seatCmd = &cobra.Command{
	Use:   "seat",
	Short: "Search candidates for a single seat",
	Long:  `Run the search pipeline for one seat described by a criteria JSON file and print the ranked results.`,
	RunE:  runSeatSearch,
}

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Search candidates for all seats of a project",
	Long:  `Run the search pipeline for every seat in a criteria JSON file (an array of seats) and print the per-seat results.`,
	RunE:  runProjectSearch,
}

func init() {
	for _, cmd := range []*cobra.Command{seatCmd, projectCmd} {
		cmd.Flags().StringVar(&searchCriteriaFile, "criteria", "", "Path to the criteria JSON file (required)")
		cmd.Flags().StringVar(&searchRawTextFile, "brief", "", "Path to the raw brief text file (optional)")
		cmd.Flags().IntVar(&searchTopK, "top-k", 0, "Results per seat (0 uses the configured default)")
		_ = cmd.MarkFlagRequired("criteria")
		rootCmd.AddCommand(cmd)
	}
}

func runSeatSearch(cmd *cobra.Command, _ []string) error {
	var crit types.Criteria
	if err := readJSONFile(searchCriteriaFile, &crit); err != nil {
		return err
	}
	return executeSearch(cmd, func(ctx context.Context, svc *search.Service, rawText string) (*types.ProjectResult, error) {
		return svc.SearchSeat(ctx, crit, rawText, searchTopK)
	})
}

func runProjectSearch(cmd *cobra.Command, _ []string) error {
	var criteria []types.Criteria
	if err := readJSONFile(searchCriteriaFile, &criteria); err != nil {
		return err
	}
	return executeSearch(cmd, func(ctx context.Context, svc *search.Service, rawText string) (*types.ProjectResult, error) {
		return svc.SearchProject(ctx, criteria, rawText, searchTopK)
	})
}

// executeSearch wires the service the same way the server does, runs the
// search and prints the result as JSON.
func executeSearch(cmd *cobra.Command, run func(context.Context, *search.Service, string) (*types.ProjectResult, error)) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	rawText := ""
	if searchRawTextFile != "" {
		data, err := os.ReadFile(searchRawTextFile)
		if err != nil {
			return fmt.Errorf("failed to read brief file: %w", err)
		}
		rawText = string(data)
	}

	ctx := context.Background()
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	client, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.APIKey)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer client.Close()

	svc := newSearchService(cfg, database, client)
	result, err := run(ctx, svc, rawText)
	if err != nil {
		return err
	}

	return printJSON(cmd, result)
}

func newSearchService(cfg *config.Config, database *db.DB, client llm.Client) *search.Service {
	writer := artifacts.NewWriter(cfg.RunsDir)
	return search.NewService(database, cfg, client, database, writer)
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
