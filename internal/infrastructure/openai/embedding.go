package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/DRSN-tech/movie-chat/internal/cfg"
	"github.com/DRSN-tech/movie-chat/pkg/e"
	"github.com/DRSN-tech/movie-chat/pkg/jitter"
	"github.com/DRSN-tech/movie-chat/pkg/logger"
	"github.com/jimlawless/whereami"
	"github.com/sashabaranov/go-openai"
)

// EmbeddingService превращает текст в вектор настроенной размерности
// через внешний embedding-сервис, с retry и экспоненциальной задержкой.
type EmbeddingService struct {
	client *openai.Client
	cfg    *cfg.OpenAICfg
	logger logger.Logger
}

func NewEmbeddingService(client *openai.Client, cfg *cfg.OpenAICfg, logger logger.Logger) *EmbeddingService {
	return &EmbeddingService{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// Embed возвращает вектор текста. Транзиентные сбои повторяются до
// EmbedMaxAttempts раз, постоянные ошибки отдаются наверх сразу.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	const op = "EmbeddingService.Embed"

	if strings.TrimSpace(text) == "" {
		return nil, e.Wrap(op, e.ErrEmptyPrompt)
	}

	var lastErr error
	for attempt := 0; attempt < s.cfg.EmbedMaxAttempts; attempt++ {
		if attempt > 0 {
			sleep := jitter.ExponentialBackoff(s.cfg.EmbedBackoffBase, s.cfg.EmbedBackoffMax, attempt-1, jitter.DefaultJitter)
			s.logger.Warnf("embedding request failed, retrying in %v (attempt %d): %v", sleep, attempt, lastErr)

			select {
			case <-time.After(sleep):
			case <-ctx.Done():
				return nil, e.Wrap(op, ctx.Err())
			}
		}

		resp, err := s.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input:      []string{text},
			Model:      openai.EmbeddingModel(s.cfg.EmbeddingsDeployment),
			Dimensions: s.cfg.EmbeddingsDimensions,
		})
		if err != nil {
			if !isTransient(err) {
				return nil, e.Wrap(whereami.WhereAmI(), err)
			}
			lastErr = err
			continue
		}

		if len(resp.Data) == 0 {
			return nil, e.Wrap(op, fmt.Errorf("embedding response has no data"))
		}

		vector := resp.Data[0].Embedding
		if len(vector) != s.cfg.EmbeddingsDimensions {
			return nil, e.Wrap(op, fmt.Errorf("%w: got %d, want %d", e.ErrVectorSize, len(vector), s.cfg.EmbeddingsDimensions))
		}

		return vector, nil
	}

	return nil, e.Wrap(op, fmt.Errorf("%w: all %d attempts failed: %v", e.ErrServiceUnavailable, s.cfg.EmbedMaxAttempts, lastErr))
}
