package openai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient("")
	assert.ErrorIs(t, err, ErrNoAPIKey)

	client, err := NewClient("sk-test")
	require.NoError(t, err)
	assert.Equal(t, EmbeddingDimensions, client.Dimensions())
}

func TestCreateEmbeddingRejectsEmptyText(t *testing.T) {
	client, err := NewClient("sk-test")
	require.NoError(t, err)

	_, err = client.CreateEmbedding(context.Background(), "   \t\n")
	assert.ErrorIs(t, err, ErrEmptyText)
}
