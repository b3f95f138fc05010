package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/benmeehan/location-recorder/internal/constants"
	"github.com/benmeehan/location-recorder/internal/deviceinfo"
	"github.com/benmeehan/location-recorder/internal/models"
	"github.com/benmeehan/location-recorder/internal/services"
	"github.com/rs/zerolog"
)

// MaxBodyBytes caps the size of a location payload.
const MaxBodyBytes = 1 << 20

// LocationRecorder is the service behind /api/location.
type LocationRecorder interface {
	Record(ctx context.Context, payload []byte, headers deviceinfo.Headers) (models.Ack, error)
	ListAll(ctx context.Context) []models.LocationData
}

// LocationHandler serves POST and GET on the location endpoint.
type LocationHandler struct {
	service LocationRecorder
	logger  zerolog.Logger
}

// NewLocationHandler creates a LocationHandler.
func NewLocationHandler(service LocationRecorder, logger zerolog.Logger) *LocationHandler {
	return &LocationHandler{service: service, logger: logger}
}

func (h *LocationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.record(w, r)
	case http.MethodGet:
		h.list(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeJSON(w, http.StatusMethodNotAllowed, models.ErrorResponse{Error: http.StatusText(http.StatusMethodNotAllowed)}, h.logger)
	}
}

func (h *LocationHandler) record(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to read location payload")
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: constants.MessageInvalidLocation}, h.logger)
		return
	}

	ack, err := h.service.Record(r.Context(), payload, deviceinfo.FromHTTP(r.Header))
	if err != nil {
		var svcErr *services.ServiceError
		if errors.As(err, &svcErr) && svcErr.Kind == services.ClientError {
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: svcErr.Message}, h.logger)
			return
		}
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: constants.MessageSaveFailed}, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, ack, h.logger)
}

func (h *LocationHandler) list(w http.ResponseWriter, r *http.Request) {
	locations := h.service.ListAll(r.Context())
	if locations == nil {
		locations = []models.LocationData{}
	}
	writeJSON(w, http.StatusOK, models.LocationsResponse{Locations: locations}, h.logger)
}

func writeJSON(w http.ResponseWriter, status int, body any, logger zerolog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error().Err(err).Int("status", status).Msg("Failed to write response")
	}
}
