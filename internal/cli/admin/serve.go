package admin

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relayline-ai/relayline/internal/agent"
	"github.com/relayline-ai/relayline/internal/api/handlers"
	"github.com/relayline-ai/relayline/internal/config"
	"github.com/relayline-ai/relayline/internal/jobs"
	"github.com/relayline-ai/relayline/internal/server"
	"github.com/relayline-ai/relayline/internal/telemetry"
	"github.com/spf13/cobra"
)

var serveMigrationsDir string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the supervisor API server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveMigrationsDir, "migrations", "migrations", "path to migration files")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := log.New(os.Stdout, "", log.LstdFlags)

	if err := telemetry.Init(cfg.SentryDSN, cfg.Environment, cfg.Debug); err != nil {
		return err
	}
	defer telemetry.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runMigrations(cfg.DatabaseURL, serveMigrationsDir); err != nil {
		return err
	}

	rt, err := newRuntime(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer rt.close()

	// A failed initial build is not fatal: queries degrade to the exact and
	// keyword tiers until a rebuild succeeds.
	if err := rt.indexer.LoadOrBuild(ctx, false); err != nil {
		logger.Printf("vector index unavailable at startup: %v", err)
	} else {
		logger.Printf("vector index ready with %d entries", rt.indexer.Size())
	}

	sweeper := jobs.NewWorker(jobs.NewTimeoutSweeper(rt.requests), cfg.SweepInterval(), logger)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	router := server.NewRouter(server.RouterConfig{
		HelpRequests: handlers.NewHelpRequestHandler(rt.requests, rt.knowledge, logger),
		Knowledge:    handlers.NewKnowledgeHandler(rt.queries, rt.knowledge, rt.business, logger),
		Gateway:      agent.NewGateway(rt.callbacks, logger),
		APIToken:     cfg.APIToken,
		Logger:       logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Print("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
