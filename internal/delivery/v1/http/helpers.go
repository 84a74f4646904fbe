package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/DRSN-tech/movie-chat/pkg/e"
)

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func NewErrorResponse(code int, message string) *ErrorResponse {
	return &ErrorResponse{
		Code:    code,
		Message: message,
	}
}

func ToHTTPResponse(err error) (int, string) {
	switch {
	case errors.Is(err, e.ErrMissingFields):
		return http.StatusBadRequest, e.ErrMissingFields.Error()
	case errors.Is(err, e.ErrEmptyPrompt):
		return http.StatusBadRequest, e.ErrEmptyPrompt.Error()
	case errors.Is(err, e.ErrEmptySessionID):
		return http.StatusBadRequest, e.ErrEmptySessionID.Error()
	case errors.Is(err, e.ErrServiceUnavailable), errors.Is(err, e.ErrRateLimited):
		return http.StatusServiceUnavailable, e.ErrServiceUnavailable.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, context.DeadlineExceeded.Error()
	default:
		return http.StatusInternalServerError, e.ErrInternalServerError.Error()
	}
}

func WriteError(w http.ResponseWriter, err error) {
	code, msg := ToHTTPResponse(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(NewErrorResponse(code, msg))
}

func WriteSuccess(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
