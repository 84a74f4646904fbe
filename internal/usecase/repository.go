package usecase

import (
	"context"

	"github.com/DRSN-tech/movie-chat/internal/domain"
)

// MovieRepository — корпус фильмов в векторном хранилище.
type MovieRepository interface {
	// SearchSimilar возвращает до limit записей с похожестью выше minScore,
	// упорядоченных хранилищем по убыванию похожести.
	SearchSimilar(ctx context.Context, vector []float32, minScore float32, limit uint64) ([]RetrievedMovie, error)
	// Upsert идемпотентно записывает фильм по его идентификатору.
	Upsert(ctx context.Context, movie *domain.Movie) error
}

// AnswerCacheRepository — кэш обменов «вопрос-ответ» и короткая история.
type AnswerCacheRepository interface {
	SearchSimilar(ctx context.Context, vector []float32, minScore float32, limit uint64) ([]domain.CacheEntry, error)
	// RecentHistory возвращает limit последних записей по времени создания,
	// независимо от похожести.
	RecentHistory(ctx context.Context, limit uint32) ([]CacheExchange, error)
	Upsert(ctx context.Context, entry *domain.CacheEntry) error
}

// SessionRepository хранит скользящую историю реплик одной сессии.
type SessionRepository interface {
	AppendTurns(ctx context.Context, sessionID string, turns ...domain.Turn) error
	Turns(ctx context.Context, sessionID string) ([]domain.Turn, error)
}
