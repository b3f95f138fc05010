package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/benmeehan/location-recorder/internal/mocks"
	"github.com/benmeehan/location-recorder/internal/models"
	"github.com/benmeehan/location-recorder/internal/services"
	"github.com/benmeehan/location-recorder/pkg/location"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var hostInfo = models.DeviceInfo{
	UserAgent: "location-recorder (ubuntu 22.04; x86_64)",
	Platform:  "ubuntu",
	Language:  "en-US",
	Timezone:  "UTC",
	Browser:   "Unknown",
	OS:        "Linux",
}

func newDeviceInfoMock() *mocks.MockDeviceInfo {
	deviceInfo := new(mocks.MockDeviceInfo)
	deviceInfo.On("GetDeviceInfo").Return(hostInfo)
	return deviceInfo
}

// TestReporterService_ReportOnce tests the record built from a fix.
func TestReporterService_ReportOnce(t *testing.T) {
	altitude := 545.4
	provider := new(mocks.MockProvider)
	provider.On("GetLocation", mock.Anything).
		Return(location.Location{Latitude: 48.1173, Longitude: 11.5167, Accuracy: 0.9, Altitude: &altitude}, nil)

	var published models.LocationData
	publisher := new(mocks.MockPublisher)
	publisher.On("Publish", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { published = args.Get(1).(models.LocationData) }).
		Return(nil)

	svc := services.NewReporterService(time.Minute, newDeviceInfoMock(), publisher, provider, zerolog.Nop())
	require.NoError(t, svc.ReportOnce(context.Background()))

	assert.Equal(t, 48.1173, published.Latitude)
	assert.Equal(t, 11.5167, published.Longitude)
	_, err := time.Parse(time.RFC3339Nano, published.Timestamp)
	assert.NoError(t, err)
	assert.Equal(t, "Linux", published.DeviceInfo.String("os"))
	assert.Equal(t, map[string]any{
		"accuracy":         0.9,
		"altitude":         545.4,
		"altitudeAccuracy": nil,
		"heading":          nil,
		"speed":            nil,
	}, published.Extra)

	// The published record is accepted by the recorder's own validation
	raw, err := json.Marshal(published)
	require.NoError(t, err)
	_, err = models.Validate(raw)
	assert.NoError(t, err)
}

// TestReporterService_ReportOnce_ProviderError tests that nothing is published without a fix.
func TestReporterService_ReportOnce_ProviderError(t *testing.T) {
	provider := new(mocks.MockProvider)
	provider.On("GetLocation", mock.Anything).Return(location.Location{}, location.ErrNoFix)
	publisher := new(mocks.MockPublisher)

	svc := services.NewReporterService(time.Minute, newDeviceInfoMock(), publisher, provider, zerolog.Nop())
	err := svc.ReportOnce(context.Background())

	assert.ErrorIs(t, err, location.ErrNoFix)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

// TestReporterService_StartStop tests periodic reporting and a clean shutdown.
func TestReporterService_StartStop(t *testing.T) {
	defer verifyNoLeaks(t)

	provider := new(mocks.MockProvider)
	provider.On("GetLocation", mock.Anything).Return(location.Location{Latitude: 1, Longitude: 2}, nil)
	provider.On("Close").Return(nil).Once()
	reported := make(chan struct{}, 1)
	publisher := new(mocks.MockPublisher)
	publisher.On("Publish", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			select {
			case reported <- struct{}{}:
			default:
			}
		}).
		Return(nil)

	svc := services.NewReporterService(10*time.Millisecond, newDeviceInfoMock(), publisher, provider, zerolog.Nop())
	require.NoError(t, svc.Start())
	assert.EqualError(t, svc.Start(), "reporter service is already running")

	select {
	case <-reported:
	case <-time.After(2 * time.Second):
		t.Fatal("no location reported")
	}

	require.NoError(t, svc.Stop())
	assert.EqualError(t, svc.Stop(), "reporter service is not running")
	provider.AssertExpectations(t)
}

// TestReporterService_InvalidInterval tests that a non-positive interval is refused at start.
func TestReporterService_InvalidInterval(t *testing.T) {
	for _, interval := range []time.Duration{0, -time.Second} {
		svc := services.NewReporterService(interval, newDeviceInfoMock(), new(mocks.MockPublisher), new(mocks.MockProvider), zerolog.Nop())

		err := svc.Start()

		assert.ErrorIs(t, err, services.ErrInvalidInterval)
		assert.EqualError(t, svc.Stop(), "reporter service is not running")
	}
}

// TestHTTPPublisher tests headers and status handling against a recorder endpoint.
func TestHTTPPublisher(t *testing.T) {
	var gotUA, gotLang string
	var gotBody []byte
	reject := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotLang = r.Header.Get("Accept-Language")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		if reject {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"Invalid location data"}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"message":"Location saved successfully"}`))
	}))
	defer server.Close()

	record := models.LocationData{
		Latitude:   1,
		Longitude:  2,
		Timestamp:  "2025-01-01T10:00:00.000Z",
		DeviceInfo: hostInfo.Attributes(),
	}
	publisher := services.NewHTTPPublisher(server.URL, hostInfo.UserAgent, "en-US,en;q=0.9", server.Client())

	require.NoError(t, publisher.Publish(context.Background(), record))
	assert.Equal(t, hostInfo.UserAgent, gotUA)
	assert.Equal(t, "en-US,en;q=0.9", gotLang)
	decoded, err := models.Validate(gotBody)
	require.NoError(t, err)
	assert.Equal(t, record, decoded)

	reject = true
	err = publisher.Publish(context.Background(), record)
	assert.EqualError(t, err, "recorder rejected location (status 400): Invalid location data")
}

// TestMQTTPublisher tests the published payload and broker failures.
func TestMQTTPublisher(t *testing.T) {
	record := models.LocationData{Latitude: 1, Longitude: 2, Timestamp: "t", DeviceInfo: models.DeviceAttributes{}}
	payload, err := json.Marshal(record)
	require.NoError(t, err)

	client := new(mocks.MockMQTTClient)
	client.On("Publish", "locations", byte(1), false, payload).Return(mocks.NewCompletedToken(nil)).Once()
	client.On("Publish", "locations", byte(1), false, payload).Return(mocks.NewCompletedToken(errors.New("broker down"))).Once()

	publisher := services.NewMQTTPublisher("locations", 1, client)
	assert.NoError(t, publisher.Publish(context.Background(), record))
	assert.EqualError(t, publisher.Publish(context.Background(), record), "failed to publish location to locations: broker down")
	client.AssertExpectations(t)
}
