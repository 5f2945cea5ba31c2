package admin

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "relaylined",
	Short:         "relayline supervisor daemon",
	Long:          "Escalation and knowledge retrieval backend for the relayline voice receptionist.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
