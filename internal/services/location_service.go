package services

import (
	"context"
	"fmt"

	"github.com/benmeehan/location-recorder/internal/constants"
	"github.com/benmeehan/location-recorder/internal/deviceinfo"
	"github.com/benmeehan/location-recorder/internal/models"
	"github.com/benmeehan/location-recorder/internal/storage"
	"github.com/rs/zerolog"
)

// ErrorKind classifies a ServiceError by who is at fault.
type ErrorKind int

const (
	// ClientError means the request itself was defective and must not be retried as is.
	ClientError ErrorKind = iota
	// ServerError means the request was valid but could not be persisted.
	ServerError
)

func (k ErrorKind) String() string {
	if k == ClientError {
		return "client"
	}
	return "server"
}

// ServiceError is returned by LocationService.Record.
type ServiceError struct {
	Kind    ErrorKind
	Message string // Safe to show to the caller
	Err     error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// StoreSelector returns the store serving the current call.
type StoreSelector interface {
	Select() storage.Store
}

// Notifier is told about every record after it has been persisted.
type Notifier interface {
	Notify(record models.LocationData)
}

// LocationService validates, enriches and persists location records, and lists them back.
type LocationService struct {
	selector StoreSelector
	notifier Notifier // optional
	logger   zerolog.Logger
}

// NewLocationService creates a LocationService backed by selector. notifier may be nil.
func NewLocationService(selector StoreSelector, notifier Notifier, logger zerolog.Logger) *LocationService {
	return &LocationService{
		selector: selector,
		notifier: notifier,
		logger:   logger,
	}
}

// Record validates payload, overwrites the device's userAgent and language with what
// the transport observed, and saves the record to the currently selected store.
func (s *LocationService) Record(ctx context.Context, payload []byte, headers deviceinfo.Headers) (models.Ack, error) {
	record, err := models.Validate(payload)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Rejected location payload")
		return models.Ack{}, &ServiceError{Kind: ClientError, Message: constants.MessageInvalidLocation, Err: err}
	}

	record.DeviceInfo = deviceinfo.Merge(record.DeviceInfo, headers)

	store := s.selector.Select()
	if err := store.Save(ctx, record); err != nil {
		s.logger.Error().
			Err(err).
			Str("backend", string(store.Kind())).
			Msg("Failed to save location")
		return models.Ack{}, &ServiceError{Kind: ServerError, Message: constants.MessageSaveFailed, Err: err}
	}

	s.logger.Debug().
		Str("backend", string(store.Kind())).
		Str("timestamp", record.Timestamp).
		Float64("latitude", record.Latitude).
		Float64("longitude", record.Longitude).
		Msg("Location saved")

	if s.notifier != nil {
		s.notifier.Notify(record)
	}

	return models.Ack{Success: true, Message: constants.MessageLocationSaved}, nil
}

// ListAll returns every stored record from the currently selected store.
// Read failures surface as an empty list.
func (s *LocationService) ListAll(ctx context.Context) []models.LocationData {
	return s.selector.Select().List(ctx)
}
