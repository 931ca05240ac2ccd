package client

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

// VectorRecord mirrors one indexed chunk as the API returns it.
type VectorRecord struct {
	Key      string `json:"key"`
	Content  string `json:"content"`
	Metadata string `json:"metadata"`
	Filename string `json:"filename"`
}

// EmbeddingsCmd creates the embeddings command group.
func EmbeddingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "embeddings",
		Short: "Inspect and prune the vector index",
	}

	cmd.AddCommand(embeddingsListCmd())
	cmd.AddCommand(embeddingsDeleteCmd())

	return cmd
}

func embeddingsListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List indexed chunks",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runEmbeddingsList(cmd, limit, outputJSON)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 100, "Maximum number of records")

	return cmd
}

func runEmbeddingsList(cmd *cobra.Command, limit int, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Get(fmt.Sprintf("/embeddings?limit=%d", limit))
	if err != nil {
		return fmt.Errorf("list failed: %w", err)
	}

	var records []VectorRecord
	if err := json.Unmarshal(resp.Data, &records); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(records, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(records) == 0 {
		fmt.Println("Index is empty.")
		return nil
	}

	for _, rec := range records {
		fmt.Printf("%s  %s\n", rec.Key, rec.Filename)
	}

	return nil
}

func embeddingsDeleteCmd() *cobra.Command {
	var pattern string

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete indexed chunks by key pattern",
		Long:  "Deletes vector records whose keys match a glob pattern, e.g. 'doc:report.pdf:*'.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEmbeddingsDelete(cmd, pattern)
		},
	}

	cmd.Flags().StringVar(&pattern, "pattern", "", "Key glob pattern (required)")
	_ = cmd.MarkFlagRequired("pattern")

	return cmd
}

func runEmbeddingsDelete(cmd *cobra.Command, pattern string) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	if _, err := api.Delete("/embeddings?pattern=" + url.QueryEscape(pattern)); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}

	fmt.Printf("Deleted records matching %s\n", pattern)
	return nil
}
