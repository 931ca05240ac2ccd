package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/inletai/inlet/internal/cli"
	"github.com/inletai/inlet/internal/cli/admin"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "inletd",
		Short: "Inlet ingestion daemon",
		Long:  "Inlet daemon for running the document ingestion API server and background worker",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
