package qdrant

import (
	"context"
	"time"

	config "github.com/DRSN-tech/movie-chat/internal/cfg"
	"github.com/DRSN-tech/movie-chat/internal/domain"
	"github.com/DRSN-tech/movie-chat/internal/usecase"
	"github.com/DRSN-tech/movie-chat/pkg/e"
	"github.com/DRSN-tech/movie-chat/pkg/logger"
	"github.com/jimlawless/whereami"
	"github.com/qdrant/go-client/qdrant"
)

// CacheRepo — кэш обменов «вопрос-ответ» в Qdrant. Записи append-only
// с уникальными идентификаторами, конфликтов при конкурентной записи нет.
type CacheRepo struct {
	client pointsClient
	cfg    *config.QdrantCfg
	logger logger.Logger
}

func NewCacheRepo(client pointsClient, cfg *config.QdrantCfg, logger logger.Logger) *CacheRepo {
	return &CacheRepo{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// SearchSimilar ищет почти идентичный ранее заданный вопрос.
// Порог передается хранилищу, записи ниже порога не возвращаются.
func (r *CacheRepo) SearchSimilar(ctx context.Context, vector []float32, minScore float32, limit uint64) ([]domain.CacheEntry, error) {
	points, err := r.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: r.cfg.CacheCollectionName,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limit,
		ScoreThreshold: &minScore,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	entries := make([]domain.CacheEntry, 0, len(points))
	for _, point := range points {
		payload := point.GetPayload()
		entries = append(entries, domain.CacheEntry{
			ID:          point.GetId().GetUuid(),
			Prompt:      payload[fieldPrompt].GetStringValue(),
			Completion:  payload[fieldCompletion].GetStringValue(),
			Model:       payload[fieldModel].GetStringValue(),
			TotalTokens: int(payload[fieldTotalTokens].GetIntegerValue()),
			CreatedAt:   time.Unix(0, payload[fieldCreatedAt].GetIntegerValue()).UTC(),
		})
	}

	return entries, nil
}

// RecentHistory возвращает limit последних обменов по времени создания,
// новые первыми. Похожесть не учитывается.
func (r *CacheRepo) RecentHistory(ctx context.Context, limit uint32) ([]usecase.CacheExchange, error) {
	points, err := r.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: r.cfg.CacheCollectionName,
		Limit:          qdrant.PtrOf(limit),
		WithPayload:    qdrant.NewWithPayload(true),
		OrderBy: &qdrant.OrderBy{
			Key:       fieldCreatedAt,
			Direction: qdrant.Direction_Desc.Enum(),
		},
	})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	exchanges := make([]usecase.CacheExchange, 0, len(points))
	for _, point := range points {
		payload := point.GetPayload()
		exchanges = append(exchanges, usecase.NewCacheExchange(
			payload[fieldPrompt].GetStringValue(),
			payload[fieldCompletion].GetStringValue(),
		))
	}

	return exchanges, nil
}

// Upsert сохраняет новый обмен. Записи никогда не обновляются и не удаляются,
// жизненным циклом управляет хранилище.
func (r *CacheRepo) Upsert(ctx context.Context, entry *domain.CacheEntry) error {
	point := &qdrant.PointStruct{
		Id:      qdrant.NewIDUUID(entry.ID),
		Vectors: qdrant.NewVectors(entry.Vector...),
		Payload: qdrant.NewValueMap(domain.NewCachePayload(entry)),
	}

	return upsertWithRetry(ctx, r.client, r.cfg, r.cfg.CacheCollectionName, point, r.logger)
}
