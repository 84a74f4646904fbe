package usecase

import (
	"context"

	"github.com/DRSN-tech/movie-chat/internal/domain"
)

type ChatUC interface {
	Ask(ctx context.Context, req *AskReq) (*AskRes, error)
}

type IngestUC interface {
	Run(ctx context.Context, movies []domain.Movie) (*IngestRes, error)
}
