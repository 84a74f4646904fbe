package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/DRSN-tech/movie-chat/internal/cfg"
	"github.com/DRSN-tech/movie-chat/internal/dataset"
	v1Http "github.com/DRSN-tech/movie-chat/internal/delivery/v1/http"
	openaiInfra "github.com/DRSN-tech/movie-chat/internal/infrastructure/openai"
	qdrantRepo "github.com/DRSN-tech/movie-chat/internal/repository/qdrant"
	redisRepo "github.com/DRSN-tech/movie-chat/internal/repository/redis"
	"github.com/DRSN-tech/movie-chat/internal/usecase"
	"github.com/DRSN-tech/movie-chat/pkg/clients"
	"github.com/DRSN-tech/movie-chat/pkg/closer"
	"github.com/DRSN-tech/movie-chat/pkg/e"
	"github.com/DRSN-tech/movie-chat/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
)

// App собирает зависимости сервиса и управляет его жизненным циклом.
type App struct {
	cfg        *config.Config
	logger     logger.Logger
	skipIngest bool
}

func New(cfg *config.Config, logger logger.Logger, skipIngest bool) *App {
	return &App{
		cfg:        cfg,
		logger:     logger,
		skipIngest: skipIngest,
	}
}

// Run поднимает клиентов внешних сервисов, при необходимости загружает корпус,
// запускает HTTP-сервер и корректно всё останавливает по сигналу.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cl := closer.New()

	qdrantClient, err := clients.NewQdrantClient(a.cfg.Qdrant)
	if err != nil {
		a.logger.Errorf(err, "failed to initialize qdrant")
		return e.Wrap(whereami.WhereAmI(), err)
	}
	cl.Add(func(context.Context) error { return qdrantClient.Client.Close() })

	qdrantCtx, qdrantCancel := context.WithTimeout(ctx, 10*time.Second)
	if err := clients.EnsureCollections(qdrantCtx, qdrantClient); err != nil {
		qdrantCancel()
		a.logger.Errorf(err, "failed to provision qdrant collections")
		return e.Wrap(whereami.WhereAmI(), err)
	}
	qdrantCancel()

	redisClient := clients.NewRedisClient(a.cfg.Redis)
	cl.Add(func(context.Context) error { return redisClient.Client.Close() })

	redisCtx, redisCancel := context.WithTimeout(ctx, 5*time.Second)
	if err := redisClient.Ping(redisCtx); err != nil {
		redisCancel()
		a.logger.Errorf(err, "failed to connect to redis")
		return e.Wrap(whereami.WhereAmI(), err)
	}
	redisCancel()

	movieRepo := qdrantRepo.NewMovieRepo(qdrantClient.Client, a.cfg.Qdrant, a.logger)
	cacheRepo := qdrantRepo.NewCacheRepo(qdrantClient.Client, a.cfg.Qdrant, a.logger)
	sessionRepo := redisRepo.NewSessionRepo(redisClient, a.cfg.Redis, a.logger)

	embedding := openaiInfra.NewEmbeddingService(clients.NewEmbeddingsClient(a.cfg.OpenAI), a.cfg.OpenAI, a.logger)
	completion := openaiInfra.NewCompletionService(clients.NewCompletionsClient(a.cfg.OpenAI), a.cfg.OpenAI, a.logger)

	if a.skipIngest {
		a.logger.Infof("dataset ingestion skipped (--skip-insert)")
	} else {
		ingestUC := usecase.NewIngestUC(movieRepo, embedding, a.cfg.Ingest, a.logger)
		if err := a.ingestDataset(ctx, ingestUC); err != nil {
			a.logger.Errorf(err, "failed to ingest dataset")
			return e.Wrap(whereami.WhereAmI(), err)
		}
	}

	chatUC := usecase.NewChatUC(embedding, completion, movieRepo, cacheRepo, sessionRepo, a.cfg.Retrieval, a.logger)

	r := chi.NewRouter()
	router := v1Http.NewRouter(r, a.logger)
	router.Init(chatUC, a.cfg.Retrieval.TurnTimeout)

	httpSrv := v1Http.NewServer(r, a.cfg.Http)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := httpSrv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Errorf(err, "HTTP server failed")
			errCh <- err
		}
	}()

	var appErr error
	select {
	case appErr = <-errCh:
	case <-ctx.Done():
		a.logger.Infof("Received shutdown signal, stopping gracefully...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpSrv.Stop(shutdownCtx); err != nil {
		a.logger.Errorf(err, "HTTP server shutdown error")
	} else {
		a.logger.Infof("HTTP server stopped")
	}

	if err := cl.Close(shutdownCtx); err != nil {
		a.logger.Warnf("resource close error: %v", err)
	}

	a.logger.Infof("Application shutdown complete")
	return appErr
}

// ingestDataset загружает корпус фильмов перед запуском сервера.
// Отмена контекста прекращает планирование новых записей.
func (a *App) ingestDataset(ctx context.Context, ingestUC usecase.IngestUC) error {
	movies, err := dataset.Load(a.cfg.Ingest.DatasetPath)
	if err != nil {
		return err
	}

	a.logger.Infof("ingesting %d movies from %s", len(movies), a.cfg.Ingest.DatasetPath)

	if _, err := ingestUC.Run(ctx, movies); err != nil {
		return err
	}

	return nil
}
