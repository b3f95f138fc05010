package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benmeehan/location-recorder/internal/models"
	"github.com/benmeehan/location-recorder/pkg/identity"
	"github.com/benmeehan/location-recorder/pkg/location"
	"github.com/rs/zerolog"
)

// TimestampLayout renders timestamps in UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// ErrInvalidInterval is returned by Start when the report interval is not positive.
var ErrInvalidInterval = errors.New("reporter interval must be positive")

const defaultReportTimeout = 30 * time.Second

// Publisher delivers a location record to a recorder.
type Publisher interface {
	Publish(ctx context.Context, record models.LocationData) error
}

// ReporterService periodically reads the device location and publishes it as a LocationData record.
type ReporterService struct {
	// Configuration fields
	interval time.Duration
	timeout  time.Duration

	// Dependencies
	deviceInfo       identity.DeviceInfoInterface
	publisher        Publisher
	logger           zerolog.Logger
	locationProvider location.Provider
	now              func() time.Time

	// Internal state management
	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewReporterService creates a new ReporterService instance with the provided configuration.
func NewReporterService(interval time.Duration, deviceInfo identity.DeviceInfoInterface, publisher Publisher,
	locationProvider location.Provider, logger zerolog.Logger) *ReporterService {
	timeout := interval
	if timeout <= 0 {
		timeout = defaultReportTimeout
	}
	return &ReporterService{
		interval:         interval,
		timeout:          timeout,
		deviceInfo:       deviceInfo,
		publisher:        publisher,
		logger:           logger,
		locationProvider: locationProvider,
		now:              time.Now,
	}
}

// Start initiates the ReporterService, periodically publishing location data.
func (r *ReporterService) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		r.logger.Warn().Msg("ReporterService is already running")
		return errors.New("reporter service is already running")
	}
	if r.interval <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInterval, r.interval)
	}

	r.ctx, r.cancel = context.WithCancel(context.Background())
	r.running = true

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := r.ReportOnce(r.ctx); err != nil {
					r.logger.Error().
						Err(err).
						Msg("Failed to report current location")
				}
			case <-r.ctx.Done():
				r.logger.Info().Msg("ReporterService is stopping")
				return
			}
		}
	}()

	r.logger.Info().
		Dur("interval", r.interval).
		Msg("ReporterService started")
	return nil
}

// Stop gracefully stops the ReporterService, ensuring all goroutines are terminated.
func (r *ReporterService) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		r.logger.Warn().Msg("ReporterService is not running")
		return errors.New("reporter service is not running")
	}

	r.cancel()
	r.wg.Wait()
	r.running = false

	if err := r.locationProvider.Close(); err != nil {
		r.logger.Error().Err(err).Msg("Failed to close location provider")
		return err
	}

	r.logger.Info().Msg("ReporterService stopped")
	return nil
}

// ReportOnce fetches the current location and publishes it.
func (r *ReporterService) ReportOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	loc, err := r.locationProvider.GetLocation(ctx)
	if err != nil {
		r.logger.Error().
			Err(err).
			Msg("Failed to get location from provider")
		return err
	}

	record := r.buildRecord(loc)

	if err := r.publisher.Publish(ctx, record); err != nil {
		r.logger.Error().
			Err(err).
			Msg("Failed to publish location")
		return err
	}

	r.logger.Info().
		Float64("latitude", record.Latitude).
		Float64("longitude", record.Longitude).
		Str("timestamp", record.Timestamp).
		Msg("Location reported successfully")
	return nil
}

// buildRecord shapes a fix the way browser clients do: every optional reading is
// present, null when unknown.
func (r *ReporterService) buildRecord(loc location.Location) models.LocationData {
	return models.LocationData{
		Latitude:   loc.Latitude,
		Longitude:  loc.Longitude,
		Timestamp:  r.now().UTC().Format(TimestampLayout),
		DeviceInfo: r.deviceInfo.GetDeviceInfo().Attributes(),
		Extra: map[string]any{
			models.FieldAccuracy:         loc.Accuracy,
			models.FieldAltitude:         optional(loc.Altitude),
			models.FieldAltitudeAccuracy: nil,
			models.FieldHeading:          optional(loc.Heading),
			models.FieldSpeed:            optional(loc.Speed),
		},
	}
}

func optional(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
