package services

import (
	"context"
	"errors"
	"sync"

	"github.com/benmeehan/location-recorder/internal/deviceinfo"
	"github.com/benmeehan/location-recorder/internal/models"
	"github.com/benmeehan/location-recorder/internal/utils"
	"github.com/benmeehan/location-recorder/pkg/mqtt"
	MQTT "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

// Recorder is the write path of LocationService.
type Recorder interface {
	Record(ctx context.Context, payload []byte, headers deviceinfo.Headers) (models.Ack, error)
}

// IngestService records location payloads received on an MQTT topic.
type IngestService struct {
	// Configuration fields
	topic   string
	qos     int
	workers int

	// Dependencies
	mqttClient mqtt.MQTTClient
	recorder   Recorder
	logger     zerolog.Logger

	// Internal state management
	mu      sync.RWMutex
	ctx     context.Context
	cancel  context.CancelFunc
	pool    *utils.WorkerPool
	running bool
}

// NewIngestService creates a new IngestService.
func NewIngestService(topic string, qos int, workers int, mqttClient mqtt.MQTTClient,
	recorder Recorder, logger zerolog.Logger) *IngestService {
	if workers < 1 {
		workers = 1
	}
	return &IngestService{
		topic:      topic,
		qos:        qos,
		workers:    workers,
		mqttClient: mqttClient,
		recorder:   recorder,
		logger:     logger,
	}
}

// Start subscribes to the ingest topic.
func (s *IngestService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.logger.Warn().Msg("IngestService is already running")
		return errors.New("ingest service is already running")
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.pool = utils.NewWorkerPool(s.workers, s.logger)

	token := s.mqttClient.Subscribe(s.topic, byte(s.qos), s.handleMessage)
	if token.Wait() && token.Error() != nil {
		s.cancel()
		s.pool.Shutdown()
		s.logger.Error().Err(token.Error()).Str("topic", s.topic).Msg("Failed to subscribe to ingest topic")
		return token.Error()
	}

	s.running = true
	s.logger.Info().
		Str("topic", s.topic).
		Int("qos", s.qos).
		Int("workers", s.workers).
		Msg("IngestService started")
	return nil
}

// Stop unsubscribes and waits for in-flight messages to be recorded.
func (s *IngestService) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		s.logger.Warn().Msg("IngestService is not running")
		return errors.New("ingest service is not running")
	}
	s.running = false
	s.mu.Unlock()

	// Unsubscribe without holding the lock; the client may deliver messages until it completes
	var err error
	token := s.mqttClient.Unsubscribe(s.topic)
	if token.Wait() && token.Error() != nil {
		err = token.Error()
		s.logger.Error().Err(err).Str("topic", s.topic).Msg("Failed to unsubscribe from ingest topic")
	}

	s.mu.Lock()
	s.pool.Shutdown()
	s.cancel()
	s.mu.Unlock()

	s.logger.Info().Msg("IngestService stopped")
	return err
}

// handleMessage hands a message to the worker pool. Messages that arrive after
// Stop are dropped.
func (s *IngestService) handleMessage(_ MQTT.Client, msg MQTT.Message) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.running {
		s.logger.Warn().Str("topic", msg.Topic()).Msg("Dropping message received while stopped")
		return
	}

	ctx := s.ctx
	payload := msg.Payload()
	s.pool.Submit(func() {
		s.record(ctx, msg.Topic(), payload)
	})
}

func (s *IngestService) record(ctx context.Context, topic string, payload []byte) {
	// MQTT carries no request headers; the merge resolves both fields to Unknown
	if _, err := s.recorder.Record(ctx, payload, deviceinfo.Headers{}); err != nil {
		var svcErr *ServiceError
		event := s.logger.Error()
		if errors.As(err, &svcErr) && svcErr.Kind == ClientError {
			event = s.logger.Warn()
		}
		event.Err(err).Str("topic", topic).Msg("Failed to record ingested location")
		return
	}

	s.logger.Debug().Str("topic", topic).Msg("Ingested location recorded")
}
