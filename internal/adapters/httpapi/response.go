package httpapi

import (
	"context"
	"encoding/json"
	"enhancebot/internal/core/domain"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(data); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, code string, message string) {
	writeJSON(ctx, w, status, errorResponse{Error: code, Message: message})
}

// statusForError maps enhancement errors onto HTTP status codes and a stable error code.
func statusForError(err error) (int, string) {
	var cfgErr *domain.ConfigError
	var stepErr *domain.StepError

	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest, "invalid_request"
	case errors.As(err, &cfgErr):
		return http.StatusBadRequest, "configuration_error"
	case errors.Is(err, domain.ErrPollTimeout):
		return http.StatusGatewayTimeout, "timeout"
	case errors.As(err, &stepErr):
		return http.StatusBadGateway, "upstream_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
