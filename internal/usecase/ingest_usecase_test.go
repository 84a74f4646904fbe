package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/movie-chat/internal/cfg"
	"github.com/DRSN-tech/movie-chat/internal/domain"
	"github.com/DRSN-tech/movie-chat/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type boundedMovieRepoMock struct {
	mu          sync.Mutex
	inflight    int
	maxInflight int
	upserts     int
	vectorLens  []int
	failIDs     map[string]bool
}

func (m *boundedMovieRepoMock) SearchSimilar(_ context.Context, _ []float32, _ float32, _ uint64) ([]RetrievedMovie, error) {
	return nil, nil
}

func (m *boundedMovieRepoMock) Upsert(_ context.Context, movie *domain.Movie) error {
	m.mu.Lock()
	m.inflight++
	if m.inflight > m.maxInflight {
		m.maxInflight = m.inflight
	}
	m.mu.Unlock()

	time.Sleep(2 * time.Millisecond)

	m.mu.Lock()
	m.inflight--
	m.mu.Unlock()

	if m.failIDs[movie.ID] {
		return fmt.Errorf("upsert rejected")
	}

	m.mu.Lock()
	m.upserts++
	m.vectorLens = append(m.vectorLens, len(movie.Vector))
	m.mu.Unlock()

	return nil
}

type vectorizeEmbeddingMock struct {
	dims    int
	failFor map[string]bool
}

func (m *vectorizeEmbeddingMock) Embed(_ context.Context, text string) ([]float32, error) {
	if m.failFor[text] {
		return nil, fmt.Errorf("embedding failed")
	}
	return make([]float32, m.dims), nil
}

func preVectorizedMovies(n int) []domain.Movie {
	movies := make([]domain.Movie, 0, n)
	for i := 0; i < n; i++ {
		movies = append(movies, *domain.NewMovie(
			fmt.Sprintf("movie-%d", i),
			fmt.Sprintf("Movie %d", i),
			"overview",
			nil,
			[]float32{0.1, 0.2},
		))
	}
	return movies
}

func TestIngestRespectsWriterLimit(t *testing.T) {
	repo := &boundedMovieRepoMock{}
	ingestCfg := &cfg.IngestCfg{Writers: 3, WritePacing: time.Millisecond}

	uc := NewIngestUC(repo, &vectorizeEmbeddingMock{dims: 2}, ingestCfg, logger.NewSlogLogger())

	res, err := uc.Run(context.Background(), preVectorizedMovies(20))
	require.NoError(t, err)

	assert.Equal(t, 20, res.Inserted)
	assert.Zero(t, res.Skipped)
	assert.LessOrEqual(t, repo.maxInflight, 3)
}

func TestIngestCountsUpsertFailuresAsSkipped(t *testing.T) {
	repo := &boundedMovieRepoMock{failIDs: map[string]bool{"movie-1": true, "movie-4": true}}
	ingestCfg := &cfg.IngestCfg{Writers: 2, WritePacing: time.Millisecond}

	uc := NewIngestUC(repo, &vectorizeEmbeddingMock{dims: 2}, ingestCfg, logger.NewSlogLogger())

	res, err := uc.Run(context.Background(), preVectorizedMovies(6))
	require.NoError(t, err)

	assert.Equal(t, 4, res.Inserted)
	assert.Equal(t, 2, res.Skipped)
}

func TestIngestFiltersMoviesWithoutVectors(t *testing.T) {
	repo := &boundedMovieRepoMock{}
	ingestCfg := &cfg.IngestCfg{Writers: 2, WritePacing: time.Millisecond}

	movies := preVectorizedMovies(3)
	movies[1].Vector = nil

	uc := NewIngestUC(repo, &vectorizeEmbeddingMock{dims: 2}, ingestCfg, logger.NewSlogLogger())

	res, err := uc.Run(context.Background(), movies)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Inserted)
	assert.Equal(t, 1, res.Skipped)
}

func TestIngestVectorizeSkipsBrokenRecords(t *testing.T) {
	repo := &boundedMovieRepoMock{}
	ingestCfg := &cfg.IngestCfg{Writers: 2, WritePacing: time.Millisecond, Vectorize: true}
	embedding := &vectorizeEmbeddingMock{dims: 2, failFor: map[string]bool{"unembeddable overview": true}}

	movies := []domain.Movie{
		*domain.NewMovie("m1", "Good", "a fine overview", nil, nil),
		*domain.NewMovie("m2", "Empty", "   ", nil, nil),
		*domain.NewMovie("m3", "Broken", "unembeddable overview", nil, nil),
	}

	uc := NewIngestUC(repo, embedding, ingestCfg, logger.NewSlogLogger())

	res, err := uc.Run(context.Background(), movies)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 2, res.Skipped)
}

func TestIngestCancelledBeforeScheduling(t *testing.T) {
	repo := &boundedMovieRepoMock{}
	ingestCfg := &cfg.IngestCfg{Writers: 2, WritePacing: time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	uc := NewIngestUC(repo, &vectorizeEmbeddingMock{dims: 2}, ingestCfg, logger.NewSlogLogger())

	_, err := uc.Run(ctx, preVectorizedMovies(5))
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, repo.upserts)
}

func TestIngestVectorizeAssignsConfiguredDimensions(t *testing.T) {
	repo := &boundedMovieRepoMock{}
	ingestCfg := &cfg.IngestCfg{Writers: 1, WritePacing: time.Millisecond, Vectorize: true}
	embedding := &vectorizeEmbeddingMock{dims: 4}

	movies := []domain.Movie{*domain.NewMovie("m1", "Solo", strings.Repeat("x", 10), nil, nil)}

	uc := NewIngestUC(repo, embedding, ingestCfg, logger.NewSlogLogger())

	res, err := uc.Run(context.Background(), movies)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted)
	require.Len(t, repo.vectorLens, 1)
	assert.Equal(t, 4, repo.vectorLens[0])
}
