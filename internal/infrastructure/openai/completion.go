package openai

import (
	"context"
	"encoding/json"

	"github.com/DRSN-tech/movie-chat/internal/cfg"
	"github.com/DRSN-tech/movie-chat/internal/usecase"
	"github.com/DRSN-tech/movie-chat/pkg/e"
	"github.com/DRSN-tech/movie-chat/pkg/logger"
	"github.com/jimlawless/whereami"
	"github.com/sashabaranov/go-openai"
)

// systemPrompt ограничивает модель выданным контекстом.
const systemPrompt = `You are a helpful assistant for answering movie-related queries based on the given context.
Only answer from the given context. List at least 3 relevant movies if applicable.`

// CompletionService собирает структурированный промпт из контекста
// и запрашивает ответ у completion-сервиса.
type CompletionService struct {
	client *openai.Client
	cfg    *cfg.OpenAICfg
	logger logger.Logger
}

func NewCompletionService(client *openai.Client, cfg *cfg.OpenAICfg, logger logger.Logger) *CompletionService {
	return &CompletionService{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// Complete возвращает текст ответа, фактическую модель и число токенов.
// Низкая температура выбрана ради детерминированных ответов из контекста.
func (s *CompletionService) Complete(ctx context.Context, req *usecase.CompletionReq) (*usecase.CompletionRes, error) {
	const op = "CompletionService.Complete"

	messages, err := buildMessages(req)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.cfg.CompletionsDeployment,
		Messages:    messages,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if len(resp.Choices) == 0 {
		return nil, e.Wrap(op, e.ErrEmptyCompletion)
	}

	return usecase.NewCompletionRes(resp.Choices[0].Message.Content, resp.Model, resp.Usage.TotalTokens), nil
}

// buildMessages выстраивает сообщения: системная инструкция, исторические
// обмены в хронологическом порядке, найденные фильмы системными сообщениями
// (сериализованная запись, не пересказ) и последним — живой вопрос.
func buildMessages(req *usecase.CompletionReq) ([]openai.ChatCompletionMessage, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.History)*2+len(req.Movies)+2)

	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})

	// история приходит новыми вперёд, в промпт идёт старыми вперёд
	for i := len(req.History) - 1; i >= 0; i-- {
		messages = append(messages,
			openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.History[i].Prompt},
			openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: req.History[i].Completion},
		)
	}

	for _, movie := range req.Movies {
		data, err := json.Marshal(movie)
		if err != nil {
			return nil, err
		}

		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: string(data),
		})
	}

	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	return messages, nil
}
