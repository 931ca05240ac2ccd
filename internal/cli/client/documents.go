package client

import (
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// DocumentState mirrors the API's per-document state record.
type DocumentState struct {
	Filename          string `json:"filename"`
	Converted         bool   `json:"converted"`
	EmbeddingsAdded   bool   `json:"embeddings_added"`
	ConvertedFilename string `json:"converted_filename"`
}

// ProcessResponse mirrors the API's batch-processing response.
type ProcessResponse struct {
	Enqueued int    `json:"enqueued"`
	Message  string `json:"message"`
}

// DeleteStepResult mirrors one step of the API's deletion report.
type DeleteStepResult struct {
	Step  string `json:"step"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// DeleteReport mirrors the API's per-step deletion report.
type DeleteReport struct {
	Filename string             `json:"filename"`
	Steps    []DeleteStepResult `json:"steps"`
}

// UploadCmd creates the upload command.
func UploadCmd() *cobra.Command {
	var (
		name        string
		contentType string
	)

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a document for ingestion",
		Long:  "Uploads a local file to the document store. Plain-text files skip conversion; everything else awaits layout analysis.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runUpload(cmd, args[0], name, contentType, outputJSON)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Document name on the server (defaults to the file's base name)")
	cmd.Flags().StringVar(&contentType, "content-type", "", "MIME type (defaults from the file extension)")

	return cmd
}

func runUpload(cmd *cobra.Command, path, name, contentType string, outputJSON bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	if name == "" {
		name = filepath.Base(path)
	}
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(path))
	}

	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.PostFile("/documents", name, contentType, data)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	var state DocumentState
	if err := json.Unmarshal(resp.Data, &state); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(state, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Printf("Uploaded %s\n", state.Filename)
		if state.Converted {
			fmt.Println("Conversion: not needed (plain text)")
		} else {
			fmt.Println("Conversion: pending (run 'inlet process')")
		}
	}

	return nil
}

// ListCmd creates the list command.
func ListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List documents and their ingestion state",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runList(cmd, outputJSON)
		},
	}

	return cmd
}

func runList(cmd *cobra.Command, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Get("/documents")
	if err != nil {
		return fmt.Errorf("list failed: %w", err)
	}

	var states []DocumentState
	if err := json.Unmarshal(resp.Data, &states); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(states, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(states) == 0 {
		fmt.Println("No documents.")
		return nil
	}

	for _, state := range states {
		fmt.Printf("%s  converted=%t  embeddings=%t", state.Filename, state.Converted, state.EmbeddingsAdded)
		if state.ConvertedFilename != "" {
			fmt.Printf("  (%s)", state.ConvertedFilename)
		}
		fmt.Println()
	}

	return nil
}

// ProcessCmd creates the process command.
func ProcessCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Enqueue documents for conversion and embedding",
		Long:  "Enqueues documents still lacking embeddings. With --all, every document is reprocessed from scratch.",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runProcess(cmd, all, outputJSON)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Reprocess every document, embedded or not")

	return cmd
}

func runProcess(cmd *cobra.Command, all, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	path := "/process"
	if all {
		path += "?process_all=true"
	}

	resp, err := api.Post(path, nil)
	if err != nil {
		return fmt.Errorf("process failed: %w", err)
	}

	var result ProcessResponse
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Println(result.Message)
	}

	return nil
}

// DeleteCmd creates the delete command.
func DeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a document, its converted text and its vectors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runDelete(cmd, args[0], outputJSON)
		},
	}

	return cmd
}

func runDelete(cmd *cobra.Command, name string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Delete("/documents/" + name)
	if err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}

	var report DeleteReport
	if err := json.Unmarshal(resp.Data, &report); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	failed := 0
	for _, step := range report.Steps {
		status := "ok"
		if !step.OK {
			status = "FAILED: " + step.Error
			failed++
		}
		fmt.Printf("%-10s %s\n", step.Step, status)
	}
	if failed > 0 {
		return fmt.Errorf("deletion of %s completed with %d failed steps", report.Filename, failed)
	}

	fmt.Printf("Deleted %s\n", report.Filename)
	return nil
}
