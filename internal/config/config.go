package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`

	// Static bearer token required on /api routes when set
	APIToken string `envconfig:"API_TOKEN"`

	// Where index snapshots are written when S3 is not configured
	DataDir string `envconfig:"DATA_DIR" default:"data"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"relayline-index"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	// Hybrid matching thresholds
	SemanticTopK      int     `envconfig:"SEMANTIC_TOP_K" default:"3"`
	SemanticThreshold float64 `envconfig:"SEMANTIC_THRESHOLD" default:"0.70"`
	KeywordThreshold  float64 `envconfig:"KEYWORD_THRESHOLD" default:"0.85"`
	FinalThreshold    float64 `envconfig:"FINAL_THRESHOLD" default:"0.65"`

	// Pending requests older than RequestTimeout are swept to unresolved
	RequestTimeoutMinutes int `envconfig:"REQUEST_TIMEOUT_MINUTES" default:"30"`
	SweepIntervalMinutes  int `envconfig:"SWEEP_INTERVAL_MINUTES" default:"5"`

	WebhookTimeoutSeconds int `envconfig:"WEBHOOK_TIMEOUT_SECONDS" default:"10"`

	// Endpoint the voice pipeline exposes for answer push-back. Deliveries
	// are logged and dropped when unset.
	SessionSinkURL string `envconfig:"SESSION_SINK_URL"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("RELAYLINE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMinutes) * time.Minute
}

func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalMinutes) * time.Minute
}

func (c *Config) WebhookTimeout() time.Duration {
	return time.Duration(c.WebhookTimeoutSeconds) * time.Second
}
