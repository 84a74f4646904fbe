package e

import "fmt"

var (
	// Ошибки данных
	ErrEmptyPrompt    = fmt.Errorf("prompt is empty")
	ErrEmptyOverview  = fmt.Errorf("movie overview is empty")
	ErrEmptySessionID = fmt.Errorf("session id is empty")
	ErrVectorSize     = fmt.Errorf("vector size mismatch")

	// Ошибки внешних сервисов
	ErrServiceUnavailable = fmt.Errorf("external service unavailable") // после исчерпания повторов
	ErrEmptyCompletion    = fmt.Errorf("completion response has no choices")
	ErrRateLimited        = fmt.Errorf("store rate limit exceeded")

	// 400 Bad Request
	ErrMissingFields = fmt.Errorf("missing required fields")

	// 500 Internal Server Error
	ErrInternalServerError = fmt.Errorf("internal server error")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
