package qdrant

import (
	"context"

	config "github.com/DRSN-tech/movie-chat/internal/cfg"
	"github.com/DRSN-tech/movie-chat/internal/domain"
	"github.com/DRSN-tech/movie-chat/internal/usecase"
	"github.com/DRSN-tech/movie-chat/pkg/e"
	"github.com/DRSN-tech/movie-chat/pkg/logger"
	"github.com/google/uuid"
	"github.com/jimlawless/whereami"
	"github.com/qdrant/go-client/qdrant"
)

// MovieRepo — корпус фильмов в Qdrant.
type MovieRepo struct {
	client pointsClient
	cfg    *config.QdrantCfg
	logger logger.Logger
}

func NewMovieRepo(client pointsClient, cfg *config.QdrantCfg, logger logger.Logger) *MovieRepo {
	return &MovieRepo{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// SearchSimilar возвращает фильмы с похожестью выше minScore в порядке
// её убывания. Похожесть считает хранилище, локально она не пересчитывается.
func (r *MovieRepo) SearchSimilar(ctx context.Context, vector []float32, minScore float32, limit uint64) ([]usecase.RetrievedMovie, error) {
	points, err := r.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: r.cfg.MovieCollectionName,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limit,
		ScoreThreshold: &minScore,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	movies := make([]usecase.RetrievedMovie, 0, len(points))
	for _, point := range points {
		payload := point.GetPayload()
		movies = append(movies, usecase.NewRetrievedMovie(
			payload[fieldTitle].GetStringValue(),
			payload[fieldOverview].GetStringValue(),
			genresFromValue(payload[fieldGenres]),
			point.GetScore(),
		))
	}

	return movies, nil
}

// Upsert идемпотентно записывает фильм. Идентификатор точки — детерминированный
// UUID от ID фильма, поэтому повторная загрузка не плодит дубликатов.
func (r *MovieRepo) Upsert(ctx context.Context, movie *domain.Movie) error {
	point := &qdrant.PointStruct{
		Id:      qdrant.NewIDUUID(uuid.NewSHA1(uuid.NameSpaceOID, []byte(movie.ID)).String()),
		Vectors: qdrant.NewVectors(movie.Vector...),
		Payload: qdrant.NewValueMap(domain.NewMoviePayload(movie)),
	}

	return upsertWithRetry(ctx, r.client, r.cfg, r.cfg.MovieCollectionName, point, r.logger)
}

func genresFromValue(value *qdrant.Value) []string {
	items := value.GetListValue().GetValues()
	if len(items) == 0 {
		return nil
	}

	genres := make([]string, 0, len(items))
	for _, item := range items {
		genres = append(genres, item.GetStringValue())
	}

	return genres
}
