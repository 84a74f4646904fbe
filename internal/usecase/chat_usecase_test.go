package usecase

import (
	"context"
	"fmt"
	"testing"

	"github.com/DRSN-tech/movie-chat/internal/cfg"
	"github.com/DRSN-tech/movie-chat/internal/domain"
	"github.com/DRSN-tech/movie-chat/pkg/e"
	"github.com/DRSN-tech/movie-chat/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type embeddingMock struct {
	vector []float32
	err    error
	calls  int
}

func (m *embeddingMock) Embed(_ context.Context, _ string) ([]float32, error) {
	m.calls++
	return m.vector, m.err
}

type completionMock struct {
	res     *CompletionRes
	err     error
	calls   int
	lastReq *CompletionReq
}

func (m *completionMock) Complete(_ context.Context, req *CompletionReq) (*CompletionRes, error) {
	m.calls++
	m.lastReq = req
	return m.res, m.err
}

type movieRepoMock struct {
	movies      []RetrievedMovie
	err         error
	searchCalls int
}

func (m *movieRepoMock) SearchSimilar(_ context.Context, _ []float32, _ float32, _ uint64) ([]RetrievedMovie, error) {
	m.searchCalls++
	return m.movies, m.err
}

func (m *movieRepoMock) Upsert(_ context.Context, _ *domain.Movie) error {
	return nil
}

type cacheRepoMock struct {
	hits         []domain.CacheEntry
	searchErr    error
	history      []CacheExchange
	historyErr   error
	upsertErr    error
	upserted     []*domain.CacheEntry
	searchCalls  int
	historyCalls int
}

func (m *cacheRepoMock) SearchSimilar(_ context.Context, _ []float32, _ float32, _ uint64) ([]domain.CacheEntry, error) {
	m.searchCalls++
	return m.hits, m.searchErr
}

func (m *cacheRepoMock) RecentHistory(_ context.Context, _ uint32) ([]CacheExchange, error) {
	m.historyCalls++
	return m.history, m.historyErr
}

func (m *cacheRepoMock) Upsert(_ context.Context, entry *domain.CacheEntry) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserted = append(m.upserted, entry)
	return nil
}

type sessionRepoMock struct {
	appendErr error
	turnsErr  error
	stored    []domain.Turn
}

func (m *sessionRepoMock) AppendTurns(_ context.Context, _ string, turns ...domain.Turn) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.stored = append(m.stored, turns...)
	return nil
}

func (m *sessionRepoMock) Turns(_ context.Context, _ string) ([]domain.Turn, error) {
	if m.turnsErr != nil {
		return nil, m.turnsErr
	}
	return m.stored, nil
}

func testRetrievalCfg() *cfg.RetrievalCfg {
	return &cfg.RetrievalCfg{
		CorpusScoreThreshold: 0.02,
		CorpusLimit:          5,
		CacheScoreThreshold:  0.99,
		HistoryLimit:         3,
	}
}

func newChatFixture(embedding *embeddingMock, completion *completionMock, movies *movieRepoMock, cache *cacheRepoMock, session *sessionRepoMock) *ChatUseCase {
	return NewChatUC(embedding, completion, movies, cache, session, testRetrievalCfg(), logger.NewSlogLogger())
}

func TestAskCacheHitSkipsRetrievalAndCompletion(t *testing.T) {
	embedding := &embeddingMock{vector: []float32{0.1, 0.2, 0.3}}
	completion := &completionMock{}
	movies := &movieRepoMock{}
	cache := &cacheRepoMock{
		hits: []domain.CacheEntry{{ID: "cached-id", Prompt: "q", Completion: "cached answer"}},
	}
	session := &sessionRepoMock{}

	uc := newChatFixture(embedding, completion, movies, cache, session)

	res, err := uc.Ask(context.Background(), NewAskReq("s1", "What are some good action movies?"))
	require.NoError(t, err)

	assert.Equal(t, "cached answer", res.Answer)
	assert.True(t, res.Cached)
	assert.Zero(t, movies.searchCalls)
	assert.Zero(t, completion.calls)
	assert.Zero(t, cache.historyCalls)
	assert.Empty(t, cache.upserted)
}

func TestAskCacheMissPersistsExchange(t *testing.T) {
	vector := []float32{0.5, 0.4, 0.3}
	embedding := &embeddingMock{vector: vector}
	completion := &completionMock{res: NewCompletionRes("generated answer", "gpt-4o-mini-test", 42)}
	movies := &movieRepoMock{movies: []RetrievedMovie{
		NewRetrievedMovie("Mad Max", "post-apocalyptic chase", nil, 0.8),
	}}
	cache := &cacheRepoMock{history: []CacheExchange{NewCacheExchange("old q", "old a")}}
	session := &sessionRepoMock{}

	uc := newChatFixture(embedding, completion, movies, cache, session)

	res, err := uc.Ask(context.Background(), NewAskReq("s1", "What are some good action movies?"))
	require.NoError(t, err)

	assert.Equal(t, "generated answer", res.Answer)
	assert.False(t, res.Cached)
	assert.Equal(t, 1, movies.searchCalls)
	assert.Equal(t, 1, cache.historyCalls)
	assert.Equal(t, 1, completion.calls)

	require.NotNil(t, completion.lastReq)
	assert.Equal(t, "What are some good action movies?", completion.lastReq.Prompt)
	assert.Len(t, completion.lastReq.Movies, 1)
	assert.Len(t, completion.lastReq.History, 1)

	require.Len(t, cache.upserted, 1)
	entry := cache.upserted[0]
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "What are some good action movies?", entry.Prompt)
	assert.Equal(t, "generated answer", entry.Completion)
	assert.Equal(t, "gpt-4o-mini-test", entry.Model)
	assert.Equal(t, vector, entry.Vector)
	assert.Equal(t, 42, entry.TotalTokens)
}

func TestAskReturnsUpdatedSessionTurns(t *testing.T) {
	embedding := &embeddingMock{vector: []float32{0.1}}
	completion := &completionMock{res: NewCompletionRes("answer", "model", 1)}
	session := &sessionRepoMock{stored: []domain.Turn{
		domain.NewTurn(domain.RoleUser, "earlier question"),
		domain.NewTurn(domain.RoleAssistant, "earlier answer"),
	}}

	uc := newChatFixture(embedding, completion, &movieRepoMock{}, &cacheRepoMock{}, session)

	res, err := uc.Ask(context.Background(), NewAskReq("s1", "next question"))
	require.NoError(t, err)

	require.Len(t, res.Turns, 4)
	assert.Equal(t, "earlier question", res.Turns[0].Content)
	assert.Equal(t, "next question", res.Turns[2].Content)
	assert.Equal(t, "answer", res.Turns[3].Content)
}

func TestAskCachePersistFailureStillReturnsAnswer(t *testing.T) {
	embedding := &embeddingMock{vector: []float32{0.1}}
	completion := &completionMock{res: NewCompletionRes("answer", "model", 7)}
	cache := &cacheRepoMock{upsertErr: fmt.Errorf("write failed")}

	uc := newChatFixture(embedding, completion, &movieRepoMock{}, cache, &sessionRepoMock{})

	res, err := uc.Ask(context.Background(), NewAskReq("s1", "question"))
	require.NoError(t, err)
	assert.Equal(t, "answer", res.Answer)
}

func TestAskSessionWriteFailureDegradesToCurrentTurns(t *testing.T) {
	embedding := &embeddingMock{vector: []float32{0.1}}
	completion := &completionMock{res: NewCompletionRes("answer", "model", 7)}
	session := &sessionRepoMock{appendErr: fmt.Errorf("redis down")}

	uc := newChatFixture(embedding, completion, &movieRepoMock{}, &cacheRepoMock{}, session)

	res, err := uc.Ask(context.Background(), NewAskReq("s1", "question"))
	require.NoError(t, err)

	require.Len(t, res.Turns, 2)
	assert.Equal(t, domain.RoleUser, res.Turns[0].Role)
	assert.Equal(t, domain.RoleAssistant, res.Turns[1].Role)
}

func TestAskEmbeddingFailureFailsTurn(t *testing.T) {
	embedding := &embeddingMock{err: e.ErrServiceUnavailable}
	completion := &completionMock{}
	cache := &cacheRepoMock{}

	uc := newChatFixture(embedding, completion, &movieRepoMock{}, cache, &sessionRepoMock{})

	_, err := uc.Ask(context.Background(), NewAskReq("s1", "question"))
	require.ErrorIs(t, err, e.ErrServiceUnavailable)
	assert.Zero(t, completion.calls)
	assert.Empty(t, cache.upserted)
}

func TestAskCompletionFailureSkipsCacheWrite(t *testing.T) {
	embedding := &embeddingMock{vector: []float32{0.1}}
	completion := &completionMock{err: fmt.Errorf("completion failed")}
	cache := &cacheRepoMock{}

	uc := newChatFixture(embedding, completion, &movieRepoMock{}, cache, &sessionRepoMock{})

	_, err := uc.Ask(context.Background(), NewAskReq("s1", "question"))
	require.Error(t, err)
	assert.Empty(t, cache.upserted)
}

func TestAskValidation(t *testing.T) {
	uc := newChatFixture(&embeddingMock{}, &completionMock{}, &movieRepoMock{}, &cacheRepoMock{}, &sessionRepoMock{})

	_, err := uc.Ask(context.Background(), NewAskReq("s1", "  "))
	require.ErrorIs(t, err, e.ErrEmptyPrompt)

	_, err = uc.Ask(context.Background(), NewAskReq("", "question"))
	require.ErrorIs(t, err, e.ErrEmptySessionID)
}
