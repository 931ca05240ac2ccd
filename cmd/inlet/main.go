package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/inletai/inlet/internal/cli"
	"github.com/inletai/inlet/internal/cli/client"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "inlet",
		Short: "Inlet CLI - document ingestion and search",
		Long: `Inlet CLI provides commands to upload documents, drive their ingestion
and search the resulting vector index.

Environment variables:
  INLET_API_URL   API base URL (default: http://localhost:8080)`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env and config)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.InitCmd())
	rootCmd.AddCommand(client.UploadCmd())
	rootCmd.AddCommand(client.ListCmd())
	rootCmd.AddCommand(client.ProcessCmd())
	rootCmd.AddCommand(client.DeleteCmd())
	rootCmd.AddCommand(client.SearchCmd())
	rootCmd.AddCommand(client.EmbeddingsCmd())
	rootCmd.AddCommand(client.PromptsCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
