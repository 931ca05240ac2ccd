package client

import (
	"fmt"

	"github.com/spf13/cobra"
)

// InitCmd creates the init command.
func InitCmd() *cobra.Command {
	var apiURL string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Configure the inlet CLI",
		Long:  "Saves the API base URL to the global config so other commands can find the server.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(apiURL)
		},
	}

	cmd.Flags().StringVar(&apiURL, "url", defaultAPIURL, "API base URL to save")

	return cmd
}

func runInit(apiURL string) error {
	if apiURL == "" {
		return fmt.Errorf("url cannot be empty")
	}

	// Verify the server is reachable before persisting anything
	api, err := NewAPIClientWithConfig(apiURL)
	if err != nil {
		return err
	}
	if _, err := api.Get("/health"); err != nil {
		return fmt.Errorf("server at %s is not reachable: %w", apiURL, err)
	}

	if err := SaveGlobalConfig(&GlobalConfig{APIURL: apiURL}); err != nil {
		return err
	}

	configPath, _ := GetConfigPath()
	fmt.Printf("Saved API URL %s to %s\n", apiURL, configPath)
	return nil
}
