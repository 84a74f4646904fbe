package qdrant

import (
	"context"
	"fmt"
	"time"

	config "github.com/DRSN-tech/movie-chat/internal/cfg"
	"github.com/DRSN-tech/movie-chat/pkg/e"
	"github.com/DRSN-tech/movie-chat/pkg/jitter"
	"github.com/DRSN-tech/movie-chat/pkg/logger"
	"github.com/jimlawless/whereami"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Имена payload-полей точек. created_at индексируется для выборки истории.
const (
	fieldTitle       = "title"
	fieldOverview    = "overview"
	fieldGenres      = "genres"
	fieldPrompt      = "prompt"
	fieldCompletion  = "completion"
	fieldModel       = "model"
	fieldTotalTokens = "total_tokens"
	fieldCreatedAt   = "created_at"
)

// pointsClient — используемое подмножество методов клиента Qdrant.
// Выделено в интерфейс ради подмены в тестах.
type pointsClient interface {
	Upsert(ctx context.Context, request *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Query(ctx context.Context, request *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	Scroll(ctx context.Context, request *qdrant.ScrollPoints) ([]*qdrant.RetrievedPoint, error)
}

// upsertWithRetry идемпотентно записывает одну точку. При rate-limit ответе
// хранилища ждёт присланную им паузу (RetryInfo) и повторяет попытку,
// ограниченное число раз. После исчерпания попыток ошибка отдается наверх.
func upsertWithRetry(
	ctx context.Context,
	client pointsClient,
	cfg *config.QdrantCfg,
	collection string,
	point *qdrant.PointStruct,
	log logger.Logger,
) error {
	const op = "qdrant.upsertWithRetry"

	for attempt := 0; attempt < cfg.UpsertMaxRetries; attempt++ {
		_, err := client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: collection,
			Points:         []*qdrant.PointStruct{point},
		})
		if err == nil {
			return nil
		}

		st, ok := status.FromError(err)
		if !ok || st.Code() != codes.ResourceExhausted {
			return e.Wrap(whereami.WhereAmI(), err)
		}

		if attempt == cfg.UpsertMaxRetries-1 {
			return e.Wrap(op, fmt.Errorf("%w after %d attempts", e.ErrRateLimited, cfg.UpsertMaxRetries))
		}

		wait := retryAfter(st, cfg.UpsertRetryDefault)
		log.Warnf("%s rate limited, retrying in %v (attempt %d)", collection, wait, attempt+1)

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return e.Wrap(op, ctx.Err())
		}
	}

	return e.Wrap(op, e.ErrRateLimited)
}

// retryAfter извлекает присланную хранилищем паузу из деталей статуса.
// Без подсказки используется значение по умолчанию с джиттером.
func retryAfter(st *status.Status, fallback time.Duration) time.Duration {
	for _, detail := range st.Details() {
		if info, ok := detail.(*errdetails.RetryInfo); ok && info.GetRetryDelay() != nil {
			return info.GetRetryDelay().AsDuration()
		}
	}

	return jitter.Duration(fallback, jitter.DefaultJitter)
}
