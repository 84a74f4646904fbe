package openai

import (
	"errors"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

// isTransient отличает повторяемые ошибки (rate limit, 5xx, сетевые сбои)
// от постоянных (неверный запрос, просроченный ключ).
func isTransient(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= http.StatusInternalServerError
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests ||
			reqErr.HTTPStatusCode >= http.StatusInternalServerError ||
			reqErr.HTTPStatusCode == 0
	}

	// ошибки транспорта приходят без типа
	return true
}
