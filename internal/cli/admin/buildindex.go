package admin

import (
	"log"
	"os"

	"github.com/relayline-ai/relayline/internal/config"
	"github.com/spf13/cobra"
)

var buildIndexCmd = &cobra.Command{
	Use:   "build-index",
	Short: "Force a full rebuild of the vector index",
	RunE:  runBuildIndex,
}

func init() {
	rootCmd.AddCommand(buildIndexCmd)
}

func runBuildIndex(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := log.New(os.Stdout, "", log.LstdFlags)

	ctx := cmd.Context()
	rt, err := newRuntime(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer rt.close()

	if err := rt.indexer.LoadOrBuild(ctx, true); err != nil {
		return err
	}
	logger.Printf("vector index rebuilt with %d entries", rt.indexer.Size())
	return nil
}
