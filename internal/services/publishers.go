package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/benmeehan/location-recorder/internal/models"
	http_utils "github.com/benmeehan/location-recorder/pkg/httpUtils"
	"github.com/benmeehan/location-recorder/pkg/mqtt"
)

// HTTPPublisher posts records to a recorder's location endpoint.
type HTTPPublisher struct {
	endpoint       string
	userAgent      string
	acceptLanguage string
	client         *http.Client
}

// NewHTTPPublisher creates an HTTPPublisher. userAgent and acceptLanguage are sent as
// request headers, which the recorder prefers over the body's device info.
func NewHTTPPublisher(endpoint, userAgent, acceptLanguage string, client *http.Client) *HTTPPublisher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPPublisher{
		endpoint:       endpoint,
		userAgent:      userAgent,
		acceptLanguage: acceptLanguage,
		client:         client,
	}
}

// Publish posts record and fails on any non-200 reply.
func (p *HTTPPublisher) Publish(ctx context.Context, record models.LocationData) error {
	status, body, err := http_utils.PostJSON(ctx, p.client, p.endpoint, record, map[string]string{
		"User-Agent":      p.userAgent,
		"Accept-Language": p.acceptLanguage,
	})
	if err != nil {
		return err
	}

	if status != http.StatusOK {
		var reply models.ErrorResponse
		if json.Unmarshal(body, &reply) == nil && reply.Error != "" {
			return fmt.Errorf("recorder rejected location (status %d): %s", status, reply.Error)
		}
		return fmt.Errorf("recorder rejected location (status %d)", status)
	}

	return nil
}

// MQTTPublisher publishes records to an MQTT topic read by IngestService.
type MQTTPublisher struct {
	topic      string
	qos        int
	mqttClient mqtt.MQTTClient
	timeout    time.Duration
}

// NewMQTTPublisher creates an MQTTPublisher.
func NewMQTTPublisher(topic string, qos int, mqttClient mqtt.MQTTClient) *MQTTPublisher {
	return &MQTTPublisher{
		topic:      topic,
		qos:        qos,
		mqttClient: mqttClient,
		timeout:    10 * time.Second,
	}
}

// Publish serializes record and waits for the broker to accept it.
func (p *MQTTPublisher) Publish(_ context.Context, record models.LocationData) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to serialize location: %w", err)
	}

	token := p.mqttClient.Publish(p.topic, byte(p.qos), false, payload)
	if err := mqtt.WaitToken(token, p.timeout); err != nil {
		return fmt.Errorf("failed to publish location to %s: %w", p.topic, err)
	}
	return nil
}
