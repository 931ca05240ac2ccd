package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
)

// AddPromptResultRequest represents the prompt cache add request.
type AddPromptResultRequest struct {
	ID       string `json:"id"`
	Result   string `json:"result"`
	Filename string `json:"filename,omitempty"`
	Prompt   string `json:"prompt,omitempty"`
}

// PromptResult mirrors one cached prompt result.
type PromptResult struct {
	Key      string `json:"key"`
	Result   string `json:"result"`
	Filename string `json:"filename"`
	Prompt   string `json:"prompt"`
}

// PromptsCmd creates the prompts command group.
func PromptsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompts",
		Short: "Manage the cached prompt results",
	}

	cmd.AddCommand(promptsAddCmd())
	cmd.AddCommand(promptsListCmd())
	cmd.AddCommand(promptsDeleteCmd())

	return cmd
}

func promptsAddCmd() *cobra.Command {
	var (
		filename string
		prompt   string
	)

	cmd := &cobra.Command{
		Use:   "add <id> <result>",
		Short: "Cache a prompt result",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPromptsAdd(cmd, args[0], args[1], filename, prompt)
		},
	}

	cmd.Flags().StringVar(&filename, "filename", "", "Document the result was derived from")
	cmd.Flags().StringVar(&prompt, "prompt", "", "Original prompt text")

	return cmd
}

func runPromptsAdd(cmd *cobra.Command, id, result, filename, prompt string) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	req := AddPromptResultRequest{
		ID:       id,
		Result:   result,
		Filename: filename,
		Prompt:   prompt,
	}

	resp, err := api.Post("/prompts", req)
	if err != nil {
		return fmt.Errorf("add failed: %w", err)
	}

	var created struct {
		Key string `json:"key"`
	}
	if err := json.Unmarshal(resp.Data, &created); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	fmt.Printf("Cached %s\n", created.Key)
	return nil
}

func promptsListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached prompt results",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runPromptsList(cmd, limit, outputJSON)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum number of results")

	return cmd
}

func runPromptsList(cmd *cobra.Command, limit int, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Get(fmt.Sprintf("/prompts?limit=%d", limit))
	if err != nil {
		return fmt.Errorf("list failed: %w", err)
	}

	var results []PromptResult
	if err := json.Unmarshal(resp.Data, &results); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(results) == 0 {
		fmt.Println("No cached prompt results.")
		return nil
	}

	for _, res := range results {
		line := strings.TrimSpace(res.Result)
		if len(line) > 80 {
			line = line[:77] + "..."
		}
		fmt.Printf("%s  %s\n", res.Key, line)
	}

	return nil
}

func promptsDeleteCmd() *cobra.Command {
	var prefix string

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete cached prompt results",
		Long:  "Deletes cached prompt results matching a key prefix pattern. Without --prefix the whole cache is swept; document vectors are never touched.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPromptsDelete(cmd, prefix)
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "", "Key prefix pattern, e.g. 'prompt:batch-7*'")

	return cmd
}

func runPromptsDelete(cmd *cobra.Command, prefix string) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	path := "/prompts"
	if prefix != "" {
		path += "?prefix=" + url.QueryEscape(prefix)
	}

	if _, err := api.Delete(path); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}

	if prefix == "" {
		fmt.Println("Deleted all cached prompt results")
	} else {
		fmt.Printf("Deleted cached prompt results matching %s\n", prefix)
	}
	return nil
}
