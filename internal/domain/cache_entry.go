package domain

import "time"

// CacheEntry — один сохранённый обмен «вопрос-ответ».
// Играет две роли: кэш почти идентичных вопросов и короткая история диалога.
type CacheEntry struct {
	ID          string
	Prompt      string
	Completion  string
	Model       string
	Vector      []float32
	TotalTokens int
	CreatedAt   time.Time
}

func NewCacheEntry(id, prompt, completion, model string, vector []float32, totalTokens int) *CacheEntry {
	return &CacheEntry{
		ID:          id,
		Prompt:      prompt,
		Completion:  completion,
		Model:       model,
		Vector:      vector,
		TotalTokens: totalTokens,
		CreatedAt:   time.Now().UTC(),
	}
}
