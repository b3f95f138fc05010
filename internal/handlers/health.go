package handlers

import (
	"net/http"

	"github.com/rs/zerolog"
)

type healthResponse struct {
	Status string `json:"status"`
}

// HealthHandler reports liveness.
func HealthHandler(logger zerolog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok"}, logger)
	})
}
