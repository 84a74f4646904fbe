package http

import (
	"time"

	"github.com/DRSN-tech/movie-chat/internal/usecase"
	"github.com/DRSN-tech/movie-chat/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type Router struct {
	router *chi.Mux
	logger logger.Logger
}

func NewRouter(router *chi.Mux, logger logger.Logger) *Router {
	return &Router{router: router, logger: logger}
}

func (r *Router) Init(chatUC usecase.ChatUC, turnTimeout time.Duration) {
	r.router.Route("/api/v1", func(v1 chi.Router) {
		chatHandler := NewChatHandler(chatUC, turnTimeout, r.logger)
		registerChatRoutes(v1, chatHandler)
	})
}

func registerChatRoutes(router chi.Router, chatHandler *ChatHandler) {
	router.Route("/chat", func(c chi.Router) {
		c.Post("/", chatHandler.ask)
	})
}
