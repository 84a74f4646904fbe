package usecase

import "context"

// EmbeddingInfra переводит текст в вектор фиксированной размерности.
type EmbeddingInfra interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// CompletionInfra собирает промпт из контекста и запрашивает ответ модели.
type CompletionInfra interface {
	Complete(ctx context.Context, req *CompletionReq) (*CompletionRes, error)
}
