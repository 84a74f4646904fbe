package domain

// Payload описывает дополнительную информацию вектора
type Payload map[string]any

// Embedding представляет одну точку векторного хранилища
type Embedding struct {
	ID      string
	Vector  []float32
	Payload Payload
}

func NewEmbedding(id string, vector []float32, payload Payload) *Embedding {
	return &Embedding{
		ID:      id,
		Vector:  vector,
		Payload: payload,
	}
}

// NewMoviePayload собирает payload точки корпуса фильмов.
func NewMoviePayload(m *Movie) Payload {
	genres := make([]any, 0, len(m.Genres))
	for _, g := range m.Genres {
		genres = append(genres, g)
	}

	return Payload{
		"title":    m.Title,
		"overview": m.Overview,
		"genres":   genres,
	}
}

// NewCachePayload собирает payload точки кэша ответов.
// created_at хранится как unix nano и используется для выборки недавней истории.
func NewCachePayload(entry *CacheEntry) Payload {
	return Payload{
		"prompt":       entry.Prompt,
		"completion":   entry.Completion,
		"model":        entry.Model,
		"total_tokens": int64(entry.TotalTokens),
		"created_at":   entry.CreatedAt.UnixNano(),
	}
}
