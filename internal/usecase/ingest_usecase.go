package usecase

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/DRSN-tech/movie-chat/internal/cfg"
	"github.com/DRSN-tech/movie-chat/internal/domain"
	"github.com/DRSN-tech/movie-chat/pkg/e"
	"github.com/DRSN-tech/movie-chat/pkg/logger"
)

// IngestUseCase — разовая пакетная загрузка корпуса фильмов.
// Векторизация выполняется неограниченным fan-out-ом (back-pressure даёт
// retry самого embedding-сервиса), запись — пулом ограниченного размера,
// чтобы не выбирать throughput хранилища.
type IngestUseCase struct {
	movieRepo MovieRepository
	embedding EmbeddingInfra
	cfg       *cfg.IngestCfg
	logger    logger.Logger
}

func NewIngestUC(
	movieRepo MovieRepository,
	embedding EmbeddingInfra,
	cfg *cfg.IngestCfg,
	logger logger.Logger,
) *IngestUseCase {
	return &IngestUseCase{
		movieRepo: movieRepo,
		embedding: embedding,
		cfg:       cfg,
		logger:    logger,
	}
}

// Run загружает фильмы в хранилище. Загрузка best-effort: проблемные записи
// пропускаются с логом и попадают в счётчик Skipped, остальное дописывается.
// Каждый upsert идемпотентен, поэтому отмена не требует отката.
func (u *IngestUseCase) Run(ctx context.Context, movies []domain.Movie) (*IngestRes, error) {
	const op = "IngestUseCase.Run"

	start := time.Now()

	var skipped int
	if u.cfg.Vectorize {
		movies, skipped = u.vectorize(ctx, movies)
	} else {
		movies, skipped = u.filterVectorized(movies)
	}

	if err := ctx.Err(); err != nil {
		return nil, e.Wrap(op, err)
	}

	var (
		inserted atomic.Int64
		failed   atomic.Int64
		wg       sync.WaitGroup
		sem      = make(chan struct{}, u.cfg.Writers)
	)

scheduling:
	for i := range movies {
		select {
		case <-ctx.Done():
			// отмена: новые записи не планируем, начатые доходят до конца
			u.logger.Warnf("ingestion cancelled, %d of %d movies scheduled", i, len(movies))
			skipped += len(movies) - i
			break scheduling
		default:
		}

		wg.Add(1)
		go func(movie *domain.Movie) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := u.movieRepo.Upsert(ctx, movie); err != nil {
				failed.Add(1)
				u.logger.Warnf("failed to upsert movie %s: %v", movie.ID, e.Wrap(op, err))
				return
			}

			if n := inserted.Add(1); n%100 == 0 {
				u.logger.Infof("%d movies upserted", n)
			}

			// пауза между записями одного воркера
			select {
			case <-time.After(u.cfg.WritePacing):
			case <-ctx.Done():
			}
		}(&movies[i])
	}

	wg.Wait()

	res := NewIngestRes(int(inserted.Load()), skipped+int(failed.Load()), time.Since(start))
	u.logger.Infof("ingestion finished: %d inserted, %d skipped, took %s", res.Inserted, res.Skipped, res.Elapsed.Round(time.Millisecond))

	return res, nil
}

// vectorize считает векторы всех фильмов параллельно. Записи без overview и
// записи с ошибкой embedding-а пропускаются без повторной постановки.
func (u *IngestUseCase) vectorize(ctx context.Context, movies []domain.Movie) ([]domain.Movie, int) {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ready   = make([]domain.Movie, 0, len(movies))
		skipped atomic.Int64
	)

	for i := range movies {
		wg.Add(1)
		go func(movie domain.Movie) {
			defer wg.Done()

			if strings.TrimSpace(movie.Overview) == "" {
				skipped.Add(1)
				u.logger.Warnf("movie %s skipped: %v", movie.ID, e.ErrEmptyOverview)
				return
			}

			vector, err := u.embedding.Embed(ctx, movie.Overview)
			if err != nil {
				skipped.Add(1)
				u.logger.Warnf("failed to vectorize movie %s: %v", movie.ID, err)
				return
			}

			movie.Vector = vector
			mu.Lock()
			ready = append(ready, movie)
			mu.Unlock()
		}(movies[i])
	}

	wg.Wait()

	return ready, int(skipped.Load())
}

// filterVectorized отбрасывает записи без заранее посчитанного вектора.
func (u *IngestUseCase) filterVectorized(movies []domain.Movie) ([]domain.Movie, int) {
	ready := make([]domain.Movie, 0, len(movies))
	for _, movie := range movies {
		if len(movie.Vector) == 0 {
			u.logger.Warnf("movie %s skipped: %v", movie.ID, e.ErrVectorSize)
			continue
		}
		ready = append(ready, movie)
	}

	return ready, len(movies) - len(ready)
}
