package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// EmbeddingDimensions is the vector size of the embedding model.
const EmbeddingDimensions = 1536

var (
	ErrNoAPIKey        = errors.New("openai api key is not set")
	ErrEmptyText       = errors.New("text for embedding is empty")
	ErrWrongDimensions = fmt.Errorf("embedding does not have %d dimensions", EmbeddingDimensions)
)

// EmbeddingAPI is the surface the services depend on, so tests can swap in a
// fake without touching the network.
type EmbeddingAPI interface {
	CreateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Client wraps the OpenAI embeddings endpoint.
type Client struct {
	api   *openai.Client
	model openai.EmbeddingModel
}

func NewClient(apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	return &Client{
		api:   openai.NewClient(apiKey),
		model: openai.AdaEmbeddingV2,
	}, nil
}

// CreateEmbedding returns the embedding vector for the given text.
func (c *Client) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: c.model,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}

	if len(resp.Data) == 0 {
		return nil, errors.New("embedding response contains no data")
	}

	embedding := resp.Data[0].Embedding
	if len(embedding) != EmbeddingDimensions {
		return nil, ErrWrongDimensions
	}

	return embedding, nil
}

// Dimensions reports the vector size the client produces.
func (c *Client) Dimensions() int {
	return EmbeddingDimensions
}
