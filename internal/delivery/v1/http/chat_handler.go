package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/DRSN-tech/movie-chat/internal/domain"
	"github.com/DRSN-tech/movie-chat/internal/usecase"
	"github.com/DRSN-tech/movie-chat/pkg/e"
	"github.com/DRSN-tech/movie-chat/pkg/logger"
)

type ChatHandler struct {
	chatUsecase usecase.ChatUC
	turnTimeout time.Duration
	logger      logger.Logger
}

func NewChatHandler(chatUsecase usecase.ChatUC, turnTimeout time.Duration, logger logger.Logger) *ChatHandler {
	return &ChatHandler{chatUsecase: chatUsecase, turnTimeout: turnTimeout, logger: logger}
}

type ChatRequest struct {
	SessionID string `json:"session_id"`
	Prompt    string `json:"prompt"`
}

type ChatResponse struct {
	Answer string        `json:"answer"`
	Cached bool          `json:"cached"`
	Turns  []domain.Turn `json:"turns"`
}

// ask обрабатывает один ход диалога. Неудавшийся ход возвращается как
// ошибка, а не как пустой или похожий на кэшированный ответ.
func (h *ChatHandler) ask(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warnf("%d failed to decode chat request: %s", http.StatusBadRequest, err.Error())
		WriteError(w, e.ErrMissingFields)
		return
	}

	// общий таймаут хода, чтобы UI не зависал на медленных внешних сервисах
	ctx, cancel := context.WithTimeout(r.Context(), h.turnTimeout)
	defer cancel()

	res, err := h.chatUsecase.Ask(ctx, usecase.NewAskReq(req.SessionID, req.Prompt))
	if err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, ChatResponse{
		Answer: res.Answer,
		Cached: res.Cached,
		Turns:  res.Turns,
	})
}
