package client

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	apiURL   string
	apiToken string
)

var rootCmd = &cobra.Command{
	Use:           "relayline",
	Short:         "relayline operator CLI",
	Long:          "Work the escalation queue of a relayline supervisor from the terminal.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url",
		envOr("RELAYLINE_API_URL", "http://localhost:8080"), "supervisor API base URL")
	rootCmd.PersistentFlags().StringVar(&apiToken, "token",
		os.Getenv("RELAYLINE_API_TOKEN"), "bearer token for the API")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newClient() *Client {
	return NewClient(apiURL, apiToken)
}
