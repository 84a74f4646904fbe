package usecase

import (
	"time"

	"github.com/DRSN-tech/movie-chat/internal/domain"
)

// CHAT USECASE

// AskReq — один вопрос пользователя в рамках сессии.
type AskReq struct {
	SessionID string
	Prompt    string
}

// AskRes — ответ модели (или кэша) и обновлённая история реплик сессии.
type AskRes struct {
	Answer string
	Cached bool
	Turns  []domain.Turn
}

// RetrievedMovie — найденный фильм вместе с похожестью, посчитанной хранилищем.
// Сериализуется в системное сообщение как есть, без пересказа.
type RetrievedMovie struct {
	Title    string   `json:"title"`
	Overview string   `json:"overview"`
	Genres   []string `json:"genres,omitempty"`
	Score    float32  `json:"similarity_score"`
}

// CacheExchange — один исторический обмен для контекста диалога.
type CacheExchange struct {
	Prompt     string
	Completion string
}

// INFRASTRUCTURE

// CompletionReq — запрос на генерацию ответа из собранного контекста.
type CompletionReq struct {
	Prompt  string
	Movies  []RetrievedMovie
	History []CacheExchange
}

// CompletionRes — ответ completion-сервиса: текст, фактическая модель
// и израсходованные токены. Все три поля нужны для кэширования.
type CompletionRes struct {
	Answer      string
	Model       string
	TotalTokens int
}

// INGEST USECASE

// IngestRes — итог пакетной загрузки корпуса.
type IngestRes struct {
	Inserted int
	Skipped  int
	Elapsed  time.Duration
}

// MAPPERS

func NewAskReq(sessionID, prompt string) *AskReq {
	return &AskReq{
		SessionID: sessionID,
		Prompt:    prompt,
	}
}

func NewAskRes(answer string, cached bool, turns []domain.Turn) *AskRes {
	return &AskRes{
		Answer: answer,
		Cached: cached,
		Turns:  turns,
	}
}

func NewRetrievedMovie(title, overview string, genres []string, score float32) RetrievedMovie {
	return RetrievedMovie{
		Title:    title,
		Overview: overview,
		Genres:   genres,
		Score:    score,
	}
}

func NewCacheExchange(prompt, completion string) CacheExchange {
	return CacheExchange{
		Prompt:     prompt,
		Completion: completion,
	}
}

func NewCompletionReq(prompt string, movies []RetrievedMovie, history []CacheExchange) *CompletionReq {
	return &CompletionReq{
		Prompt:  prompt,
		Movies:  movies,
		History: history,
	}
}

func NewCompletionRes(answer, model string, totalTokens int) *CompletionRes {
	return &CompletionRes{
		Answer:      answer,
		Model:       model,
		TotalTokens: totalTokens,
	}
}

func NewIngestRes(inserted, skipped int, elapsed time.Duration) *IngestRes {
	return &IngestRes{
		Inserted: inserted,
		Skipped:  skipped,
		Elapsed:  elapsed,
	}
}
