package clients

import (
	config "github.com/DRSN-tech/movie-chat/internal/cfg"
	"github.com/sashabaranov/go-openai"
)

// NewEmbeddingsClient возвращает клиента endpoint-а эмбеддингов.
// Embeddings и completions ходят на разные endpoint-ы с разными ключами.
func NewEmbeddingsClient(cfg *config.OpenAICfg) *openai.Client {
	clientConfig := openai.DefaultConfig(cfg.EmbeddingsKey)
	clientConfig.BaseURL = cfg.EmbeddingsEndpoint

	return openai.NewClientWithConfig(clientConfig)
}

// NewCompletionsClient возвращает клиента endpoint-а completions.
func NewCompletionsClient(cfg *config.OpenAICfg) *openai.Client {
	clientConfig := openai.DefaultConfig(cfg.CompletionsKey)
	clientConfig.BaseURL = cfg.CompletionsEndpoint

	return openai.NewClientWithConfig(clientConfig)
}
