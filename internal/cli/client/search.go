package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// SearchRequest represents the search API request.
type SearchRequest struct {
	Query    string `json:"query"`
	K        int    `json:"k,omitempty"`
	Filename string `json:"filename,omitempty"`
}

// SearchHit represents one search result.
type SearchHit struct {
	Key      string  `json:"key"`
	Content  string  `json:"content"`
	Metadata string  `json:"metadata"`
	Filename string  `json:"filename"`
	Score    float64 `json:"score"`
}

// SearchCmd creates the search command.
func SearchCmd() *cobra.Command {
	var (
		limit    int
		filename string
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search document chunks",
		Long:  "Searches indexed document chunks by semantic similarity.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runSearch(cmd, args[0], limit, filename, outputJSON)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of results")
	cmd.Flags().StringVar(&filename, "filename", "", "Restrict results to one document")

	return cmd
}

func runSearch(cmd *cobra.Command, query string, limit int, filename string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	req := SearchRequest{
		Query:    query,
		K:        limit,
		Filename: filename,
	}

	resp, err := api.Post("/search", req)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	var hits []SearchHit
	if err := json.Unmarshal(resp.Data, &hits); err != nil {
		return fmt.Errorf("failed to parse search results: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(hits, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(hits) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("Found %d results:\n\n", len(hits))
	for i, hit := range hits {
		fmt.Printf("%d. %s (%.3f)\n", i+1, hit.Key, hit.Score)
		content := strings.TrimSpace(hit.Content)
		if len(content) > 200 {
			content = content[:197] + "..."
		}
		if content != "" {
			fmt.Printf("   %s\n", content)
		}
		if hit.Filename != "" {
			fmt.Printf("   File: %s\n", hit.Filename)
		}
		if i < len(hits)-1 {
			fmt.Println(strings.Repeat("-", 40))
		}
	}

	return nil
}
