package usecase

import (
	"context"
	"strings"
	"sync"

	"github.com/DRSN-tech/movie-chat/internal/cfg"
	"github.com/DRSN-tech/movie-chat/internal/domain"
	"github.com/DRSN-tech/movie-chat/pkg/e"
	"github.com/DRSN-tech/movie-chat/pkg/logger"
	"github.com/google/uuid"
)

// ChatUseCase реализует обработку одного хода диалога:
// EMBED -> CACHE_LOOKUP -> {HIT | MISS: RETRIEVE -> COMPLETE -> PERSIST}.
type ChatUseCase struct {
	embedding   EmbeddingInfra
	completion  CompletionInfra
	movieRepo   MovieRepository
	cacheRepo   AnswerCacheRepository
	sessionRepo SessionRepository
	retrieval   *cfg.RetrievalCfg
	logger      logger.Logger
}

func NewChatUC(
	embedding EmbeddingInfra,
	completion CompletionInfra,
	movieRepo MovieRepository,
	cacheRepo AnswerCacheRepository,
	sessionRepo SessionRepository,
	retrieval *cfg.RetrievalCfg,
	logger logger.Logger,
) *ChatUseCase {
	return &ChatUseCase{
		embedding:   embedding,
		completion:  completion,
		movieRepo:   movieRepo,
		cacheRepo:   cacheRepo,
		sessionRepo: sessionRepo,
		retrieval:   retrieval,
		logger:      logger,
	}
}

// Ask обрабатывает вопрос пользователя. При попадании в кэш возвращает
// сохранённый ответ без поиска по корпусу и вызова completion-сервиса.
func (c *ChatUseCase) Ask(ctx context.Context, req *AskReq) (*AskRes, error) {
	const op = "ChatUseCase.Ask"

	if err := c.validate(req); err != nil {
		return nil, e.Wrap(op, err)
	}

	vector, err := c.embedding.Embed(ctx, req.Prompt)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	// Проверка кэша: один результат с высоким порогом похожести
	hits, err := c.cacheRepo.SearchSimilar(ctx, vector, c.retrieval.CacheScoreThreshold, 1)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if len(hits) > 0 {
		c.logger.Infof("cache hit, session: %s, entry: %s", req.SessionID, hits[0].ID)
		return c.finishTurn(ctx, req, hits[0].Completion, true), nil
	}

	movies, history, err := c.retrieve(ctx, vector)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	res, err := c.completion.Complete(ctx, NewCompletionReq(req.Prompt, movies, history))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	// Кэширование — оптимизация: ответ уже получен, неудача записи
	// не должна проваливать весь ход
	entry := domain.NewCacheEntry(uuid.NewString(), req.Prompt, res.Answer, res.Model, vector, res.TotalTokens)
	if err := c.cacheRepo.Upsert(ctx, entry); err != nil {
		c.logger.Warnf("failed to cache completion, session: %s: %v", req.SessionID, e.Wrap(op, err))
	}

	return c.finishTurn(ctx, req, res.Answer, false), nil
}

// retrieve запускает поиск по корпусу и выборку недавней истории параллельно:
// порядок между ними не важен.
func (c *ChatUseCase) retrieve(ctx context.Context, vector []float32) ([]RetrievedMovie, []CacheExchange, error) {
	var (
		movies  []RetrievedMovie
		history []CacheExchange
		wg      sync.WaitGroup
		errCh   = make(chan error, 2)
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		found, err := c.movieRepo.SearchSimilar(ctx, vector, c.retrieval.CorpusScoreThreshold, c.retrieval.CorpusLimit)
		if err != nil {
			errCh <- err
			return
		}
		movies = found
	}()

	go func() {
		defer wg.Done()
		recent, err := c.cacheRepo.RecentHistory(ctx, c.retrieval.HistoryLimit)
		if err != nil {
			errCh <- err
			return
		}
		history = recent
	}()

	wg.Wait()
	close(errCh)

	if err := <-errCh; err != nil {
		return nil, nil, err
	}

	return movies, history, nil
}

// validate проверяет корректность входных данных хода.
func (c *ChatUseCase) validate(req *AskReq) error {
	if strings.TrimSpace(req.SessionID) == "" {
		return e.ErrEmptySessionID
	}

	if strings.TrimSpace(req.Prompt) == "" {
		return e.ErrEmptyPrompt
	}

	return nil
}

// finishTurn дописывает обмен в историю сессии и возвращает результат хода.
// Сбой истории сессии деградирует до реплик текущего хода.
func (c *ChatUseCase) finishTurn(ctx context.Context, req *AskReq, answer string, cached bool) *AskRes {
	turns := []domain.Turn{
		domain.NewTurn(domain.RoleUser, req.Prompt),
		domain.NewTurn(domain.RoleAssistant, answer),
	}

	if err := c.sessionRepo.AppendTurns(ctx, req.SessionID, turns...); err != nil {
		c.logger.Warnf("failed to append session turns, session: %s: %v", req.SessionID, err)
		return NewAskRes(answer, cached, turns)
	}

	stored, err := c.sessionRepo.Turns(ctx, req.SessionID)
	if err != nil {
		c.logger.Warnf("failed to read session turns, session: %s: %v", req.SessionID, err)
		return NewAskRes(answer, cached, turns)
	}

	return NewAskRes(answer, cached, stored)
}
