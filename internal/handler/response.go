package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"Mansoor88-6/labor-cost-dashboard/internal/client"
	"Mansoor88-6/labor-cost-dashboard/internal/dashboard"
	"Mansoor88-6/labor-cost-dashboard/internal/ratelimit"

	"go.uber.org/zap"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeUpstreamError maps service errors to a status code. Redmine
// failures surface as 502, local throttling as 503.
func writeUpstreamError(w http.ResponseWriter, logger *zap.Logger, msg string, err error) {
	var (
		statusErr    client.StatusError
		transportErr *client.TransportError
	)
	switch {
	case errors.Is(err, dashboard.ErrInvalidRange):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, ratelimit.ErrLimitExceeded):
		logger.Warn(msg, zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "Rate limit exceeded, try again later")
		return
	case errors.As(err, &statusErr):
		logger.Error(msg, zap.Error(err), zap.Int("upstream_status", statusErr.StatusCode()))
		writeError(w, http.StatusBadGateway, statusErr.Error())
		return
	case errors.As(err, &transportErr):
		logger.Error(msg, zap.Error(err), zap.Int("attempts", transportErr.Attempts))
		writeError(w, http.StatusBadGateway, "Redmine is unreachable")
		return
	}
	logger.Error(msg, zap.Error(err))
	writeError(w, http.StatusInternalServerError, msg)
}
