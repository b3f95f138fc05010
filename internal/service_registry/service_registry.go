package service_registry

import (
	"errors"
	"fmt"

	"github.com/benmeehan/location-recorder/internal/registry"
	"github.com/benmeehan/location-recorder/internal/services"
	"github.com/benmeehan/location-recorder/internal/utils"
	"github.com/benmeehan/location-recorder/pkg/identity"
	"github.com/benmeehan/location-recorder/pkg/location"
	"github.com/benmeehan/location-recorder/pkg/mqtt"
	"github.com/rs/zerolog"
)

// Transports accepted by services.reporter.transport.
const (
	TransportHTTP = "http"
	TransportMQTT = "mqtt"
)

// ErrMQTTRequired is returned when an enabled service needs a broker connection that was not set up.
var ErrMQTTRequired = errors.New("mqtt broker connection required")

// Dependencies are the shared components services are built from.
// A nil field disables the services that need it.
type Dependencies struct {
	HTTPServer registry.Service
	Recorder   services.Recorder
	DeviceInfo identity.DeviceInfoInterface
	MQTTClient mqtt.MQTTClient

	// NewProvider overrides the location provider built from configuration.
	NewProvider func() (location.Provider, error)
}

// ServiceRegistry manages the lifecycle of various services in the system.
type ServiceRegistry struct {
	services    map[string]registry.Service // Stores registered services
	serviceKeys []string                    // Maintains order of service registration
	Logger      zerolog.Logger
}

// NewServiceRegistry initializes a new, empty service registry.
func NewServiceRegistry(logger zerolog.Logger) *ServiceRegistry {
	return &ServiceRegistry{
		services: make(map[string]registry.Service),
		Logger:   logger,
	}
}

// RegisterService adds a new service to the registry.
func (sr *ServiceRegistry) RegisterService(name string, svc registry.Service) {
	if _, exists := sr.services[name]; exists {
		sr.Logger.Warn().Msgf("Service %s is already registered", name)
		return
	}
	sr.services[name] = svc
	sr.serviceKeys = append(sr.serviceKeys, name)
	sr.Logger.Info().Msgf("Registered service: %s", name)
}

// Names returns the registered service names in start order.
func (sr *ServiceRegistry) Names() []string {
	return append([]string(nil), sr.serviceKeys...)
}

// StartServices initiates all registered services in order.
// If a service fails to start, it stops already started services.
func (sr *ServiceRegistry) StartServices() error {
	startedServices := []string{}

	for _, name := range sr.serviceKeys {
		svc := sr.services[name]
		sr.Logger.Info().Msgf("Starting service: %s", name)
		if err := svc.Start(); err != nil {
			sr.Logger.Error().Err(err).Msgf("Failed to start service: %s", name)

			// Stop already started services before returning
			sr.Logger.Warn().Msg("Stopping already started services due to startup failure...")
			for i := len(startedServices) - 1; i >= 0; i-- {
				_ = sr.services[startedServices[i]].Stop()
			}
			return fmt.Errorf("failed to start %s: %w", name, err)
		}
		startedServices = append(startedServices, name)
	}

	return nil
}

// StopServices stops all services in reverse order.
func (sr *ServiceRegistry) StopServices() error {
	var stopErrors []error
	for i := len(sr.serviceKeys) - 1; i >= 0; i-- {
		name := sr.serviceKeys[i]
		if err := sr.services[name].Stop(); err != nil {
			stopErrors = append(stopErrors, fmt.Errorf("failed to stop %s: %w", name, err))
		}
	}
	if len(stopErrors) > 0 {
		for _, e := range stopErrors {
			sr.Logger.Error().Err(e).Msg("Service stop failure")
		}
		return errors.Join(stopErrors...)
	}
	return nil
}

// RegisterServices initializes and registers enabled services based on configuration.
func (sr *ServiceRegistry) RegisterServices(config *utils.Config, deps Dependencies) error {
	reporterConfig := config.Services.Reporter

	// Ordered service definitions with inline constructors
	servicesInOrder := []struct {
		name        string
		enabled     bool
		constructor func() (registry.Service, error)
	}{
		{
			name:    "http",
			enabled: deps.HTTPServer != nil,
			constructor: func() (registry.Service, error) {
				return deps.HTTPServer, nil
			},
		},
		{
			name:    "ingest",
			enabled: config.Services.Ingest.Enabled && deps.Recorder != nil,
			constructor: func() (registry.Service, error) {
				if deps.MQTTClient == nil {
					return nil, ErrMQTTRequired
				}
				return services.NewIngestService(
					config.Services.Ingest.Topic,
					config.Services.Ingest.QOS,
					config.Services.Ingest.Workers,
					deps.MQTTClient,
					deps.Recorder,
					sr.Logger.With().Str("service", "ingest").Logger(),
				), nil
			},
		},
		{
			name:    "reporter",
			enabled: reporterConfig.Enabled && deps.DeviceInfo != nil,
			constructor: func() (registry.Service, error) {
				newProvider := deps.NewProvider
				if newProvider == nil {
					newProvider = func() (location.Provider, error) {
						return NewProvider(config)
					}
				}
				provider, err := newProvider()
				if err != nil {
					return nil, err
				}

				publisher, err := NewPublisher(config, deps.DeviceInfo, deps.MQTTClient)
				if err != nil {
					return nil, err
				}

				return services.NewReporterService(
					reporterConfig.Interval,
					deps.DeviceInfo,
					publisher,
					provider,
					sr.Logger.With().Str("service", "reporter").Logger(),
				), nil
			},
		},
	}

	// Register services in the predefined order
	registeredServices := []string{}
	for _, svc := range servicesInOrder {
		if svc.enabled {
			serviceInstance, err := svc.constructor()
			if err != nil {
				sr.Logger.Error().Err(err).Msgf("Failed to create %s service", svc.name)
				return fmt.Errorf("failed to create %s service: %w", svc.name, err)
			}
			sr.RegisterService(svc.name, serviceInstance)
			registeredServices = append(registeredServices, svc.name)
		}
	}

	sr.Logger.Info().Msgf("Registered services in order: %v", registeredServices)
	return nil
}

// NewProvider builds the location provider selected by configuration.
func NewProvider(config *utils.Config) (location.Provider, error) {
	reporterConfig := config.Services.Reporter
	if reporterConfig.SensorBased {
		return location.NewDeviceSensorProvider(reporterConfig.GPSDevicePort, reporterConfig.GPSDeviceBaudRate), nil
	}
	provider, err := location.NewGoogleGeolocationProvider(reporterConfig.MapsAPIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Geolocation provider: %w", err)
	}
	return provider, nil
}

// NewPublisher builds the reporter transport selected by configuration.
func NewPublisher(config *utils.Config, deviceInfo identity.DeviceInfoInterface, mqttClient mqtt.MQTTClient) (services.Publisher, error) {
	reporterConfig := config.Services.Reporter
	switch reporterConfig.Transport {
	case TransportHTTP, "":
		return services.NewHTTPPublisher(
			reporterConfig.Endpoint,
			deviceInfo.GetDeviceInfo().UserAgent,
			reporterConfig.AcceptLanguage,
			nil,
		), nil
	case TransportMQTT:
		if mqttClient == nil {
			return nil, ErrMQTTRequired
		}
		return services.NewMQTTPublisher(reporterConfig.Topic, reporterConfig.QOS, mqttClient), nil
	}
	return nil, fmt.Errorf("unknown reporter transport %q", reporterConfig.Transport)
}
