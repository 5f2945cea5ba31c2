package admin

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/relayline-ai/relayline/internal/callback"
	"github.com/relayline-ai/relayline/internal/config"
	"github.com/relayline-ai/relayline/internal/database"
	"github.com/relayline-ai/relayline/internal/index"
	"github.com/relayline-ai/relayline/internal/openai"
	"github.com/relayline-ai/relayline/internal/repository"
	"github.com/relayline-ai/relayline/internal/service"
	"github.com/relayline-ai/relayline/internal/storage"
	"github.com/relayline-ai/relayline/internal/webhook"
)

// runtime is the assembled service graph shared by every daemon command.
type runtime struct {
	cfg    *config.Config
	logger *log.Logger
	pool   *pgxpool.Pool

	knowledgeRepo *repository.KnowledgeRepository
	requestRepo   *repository.HelpRequestRepository
	businessRepo  *repository.BusinessInfoRepository

	indexer   *service.IndexService
	knowledge *service.KnowledgeService
	queries   *service.QueryService
	requests  *service.HelpRequestService
	business  *service.BusinessInfoService
	callbacks *callback.Registry
}

func newRuntime(ctx context.Context, cfg *config.Config, logger *log.Logger) (*runtime, error) {
	pool, err := database.NewPool(ctx, database.Config{
		URL:      cfg.DatabaseURL,
		MaxConns: 10,
		MinConns: 2,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	knowledgeRepo := repository.NewKnowledgeRepository(pool)
	requestRepo := repository.NewHelpRequestRepository(pool)
	callbackRepo := repository.NewCallbackRepository(pool)
	businessRepo := repository.NewBusinessInfoRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	var embedder openai.EmbeddingAPI
	if cfg.HasOpenAI() {
		client, err := openai.NewClient(cfg.OpenAIAPIKey)
		if err != nil {
			pool.Close()
			return nil, err
		}
		embedder = client
	} else {
		logger.Print("no OpenAI API key configured, semantic matching disabled")
	}

	snapshots, err := newSnapshotStore(ctx, cfg)
	if err != nil {
		pool.Close()
		return nil, err
	}
	store := index.NewStore(openai.EmbeddingDimensions, snapshots)
	indexer := service.NewIndexService(store, knowledgeRepo, embedder, logger)

	var deliverer callback.Deliverer
	if cfg.SessionSinkURL != "" {
		deliverer = callback.NewHTTPDeliverer(cfg.SessionSinkURL, cfg.WebhookTimeout())
	} else {
		deliverer = &callback.LogDeliverer{Logger: logger}
	}
	callbacks := callback.NewRegistry(callbackRepo, deliverer, logger)
	webhooks := webhook.NewSender(cfg.WebhookTimeout(), logger)

	uuidGen := service.RandomUUIDGenerator{}
	knowledge := service.NewKnowledgeService(knowledgeRepo, embedder, indexer, uuidGen, logger)
	queries := service.NewQueryService(knowledgeRepo, embedder, indexer, service.QueryOptions{
		TopK:              cfg.SemanticTopK,
		SemanticThreshold: cfg.SemanticThreshold,
		KeywordThreshold:  cfg.KeywordThreshold,
		FinalThreshold:    cfg.FinalThreshold,
	}, logger)
	requests := service.NewHelpRequestService(
		requestRepo, txRunner, callbacks, webhooks, indexer, uuidGen,
		cfg.RequestTimeout(), logger,
	)
	business := service.NewBusinessInfoService(businessRepo)

	return &runtime{
		cfg:           cfg,
		logger:        logger,
		pool:          pool,
		knowledgeRepo: knowledgeRepo,
		requestRepo:   requestRepo,
		businessRepo:  businessRepo,
		indexer:       indexer,
		knowledge:     knowledge,
		queries:       queries,
		requests:      requests,
		business:      business,
		callbacks:     callbacks,
	}, nil
}

func (rt *runtime) close() {
	rt.pool.Close()
}

func newSnapshotStore(ctx context.Context, cfg *config.Config) (index.SnapshotStore, error) {
	if cfg.HasS3() {
		return storage.NewS3SnapshotStore(ctx, storage.Config{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			Bucket:          cfg.S3Bucket,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
		})
	}
	return index.NewFileStore(cfg.DataDir)
}

// runMigrations applies all pending schema migrations.
func runMigrations(databaseURL, migrationsDir string) error {
	m, err := migrate.New("file://"+migrationsDir, databaseURL)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
