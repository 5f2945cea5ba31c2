package admin

import (
	"log"
	"os"

	"github.com/relayline-ai/relayline/internal/config"
	"github.com/spf13/cobra"
)

var initDBMigrationsDir string

// defaultBusinessInfo is the starter profile; operators overwrite it with
// real values after first boot.
var defaultBusinessInfo = map[string]string{
	"name":    "Relayline Demo Salon",
	"address": "12 High Street, Springfield",
	"phone":   "+1 555 010 0199",
	"hours":   "Mon-Sat 9:00-18:00, closed Sunday",
	"website": "https://example.com",
}

var initDBCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Apply migrations, seed the business profile, and build the index",
	RunE:  runInitDB,
}

func init() {
	initDBCmd.Flags().StringVar(&initDBMigrationsDir, "migrations", "migrations", "path to migration files")
	rootCmd.AddCommand(initDBCmd)
}

func runInitDB(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := log.New(os.Stdout, "", log.LstdFlags)

	if err := runMigrations(cfg.DatabaseURL, initDBMigrationsDir); err != nil {
		return err
	}
	logger.Print("migrations applied")

	ctx := cmd.Context()
	rt, err := newRuntime(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer rt.close()

	for key, value := range defaultBusinessInfo {
		if err := rt.business.Set(ctx, key, value); err != nil {
			return err
		}
	}
	logger.Printf("seeded %d business profile entries", len(defaultBusinessInfo))

	if err := rt.indexer.LoadOrBuild(ctx, true); err != nil {
		logger.Printf("index build skipped: %v", err)
		return nil
	}
	logger.Printf("vector index built with %d entries", rt.indexer.Size())
	return nil
}
