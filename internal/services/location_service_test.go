package services_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/benmeehan/location-recorder/internal/deviceinfo"
	"github.com/benmeehan/location-recorder/internal/mocks"
	"github.com/benmeehan/location-recorder/internal/models"
	"github.com/benmeehan/location-recorder/internal/services"
	"github.com/benmeehan/location-recorder/internal/storage"
	"github.com/benmeehan/location-recorder/pkg/file"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const validPayload = `{
	"latitude": 52.52,
	"longitude": 13.405,
	"accuracy": 20,
	"altitude": null,
	"altitudeAccuracy": null,
	"heading": null,
	"speed": null,
	"timestamp": "2025-01-01T10:00:00.000Z",
	"deviceInfo": {"userAgent": "client-ua", "language": "de", "os": "Linux", "screenWidth": 1920}
}`

type recordingNotifier struct {
	records []models.LocationData
}

func (n *recordingNotifier) Notify(record models.LocationData) {
	n.records = append(n.records, record)
}

// TestLocationService_Record_Success tests the merge and the acknowledgement.
func TestLocationService_Record_Success(t *testing.T) {
	store := new(mocks.MockStore)
	store.On("Kind").Return(storage.KindFile)
	store.On("Save", mock.Anything, mock.MatchedBy(func(r models.LocationData) bool {
		return r.DeviceInfo.String("userAgent") == "Mozilla/5.0" &&
			r.DeviceInfo.String("language") == "en-US" &&
			r.DeviceInfo.String("os") == "Linux"
	})).Return(nil).Once()
	notifier := &recordingNotifier{}

	svc := services.NewLocationService(mocks.StaticSelector{Store: store}, notifier, zerolog.Nop())
	ack, err := svc.Record(context.Background(), []byte(validPayload), deviceinfo.Headers{
		UserAgent:      "Mozilla/5.0",
		AcceptLanguage: "en-US,en;q=0.9",
	})

	require.NoError(t, err)
	assert.Equal(t, models.Ack{Success: true, Message: "Location saved successfully"}, ack)
	store.AssertExpectations(t)
	require.Len(t, notifier.records, 1)
	assert.Equal(t, 52.52, notifier.records[0].Latitude)
}

// TestLocationService_Record_Invalid tests that rejected payloads never reach the store.
func TestLocationService_Record_Invalid(t *testing.T) {
	tests := map[string]string{
		"malformed":        `{"latitude":`,
		"missing latitude": `{"longitude": 1, "timestamp": "t", "deviceInfo": {}}`,
		"string latitude":  `{"latitude": "52", "longitude": 1, "timestamp": "t", "deviceInfo": {}}`,
		"empty timestamp":  `{"latitude": 1, "longitude": 1, "timestamp": "", "deviceInfo": {}}`,
		"null deviceInfo":  `{"latitude": 1, "longitude": 1, "timestamp": "t", "deviceInfo": null}`,
		"array payload":    `[]`,
	}

	for name, payload := range tests {
		t.Run(name, func(t *testing.T) {
			store := new(mocks.MockStore)
			notifier := &recordingNotifier{}
			svc := services.NewLocationService(mocks.StaticSelector{Store: store}, notifier, zerolog.Nop())

			_, err := svc.Record(context.Background(), []byte(payload), deviceinfo.Headers{})

			var svcErr *services.ServiceError
			require.ErrorAs(t, err, &svcErr)
			assert.Equal(t, services.ClientError, svcErr.Kind)
			assert.Equal(t, "Invalid location data", svcErr.Message)
			var validationErr *models.ValidationError
			assert.ErrorAs(t, err, &validationErr)
			store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
			assert.Empty(t, notifier.records)
		})
	}
}

// TestLocationService_Record_SaveFailure tests that a persistence failure is a server error.
func TestLocationService_Record_SaveFailure(t *testing.T) {
	writeErr := &storage.WriteError{Kind: storage.KindCollection, Op: "insert", Err: errors.New("connection refused")}
	store := new(mocks.MockStore)
	store.On("Kind").Return(storage.KindCollection)
	store.On("Save", mock.Anything, mock.Anything).Return(writeErr)
	notifier := &recordingNotifier{}

	svc := services.NewLocationService(mocks.StaticSelector{Store: store}, notifier, zerolog.Nop())
	_, err := svc.Record(context.Background(), []byte(validPayload), deviceinfo.Headers{})

	var svcErr *services.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, services.ServerError, svcErr.Kind)
	assert.Equal(t, "Failed to save location", svcErr.Message)
	assert.ErrorIs(t, err, writeErr)
	assert.Empty(t, notifier.records)
}

// TestLocationService_ListAll tests that the read path returns what the store returns.
func TestLocationService_ListAll(t *testing.T) {
	record, err := models.Validate([]byte(validPayload))
	require.NoError(t, err)

	store := new(mocks.MockStore)
	store.On("List", mock.Anything).Return([]models.LocationData{record})

	svc := services.NewLocationService(mocks.StaticSelector{Store: store}, nil, zerolog.Nop())
	assert.Equal(t, []models.LocationData{record}, svc.ListAll(context.Background()))
}

// TestLocationService_FileStore tests the full write and read path against the file backend.
func TestLocationService_FileStore(t *testing.T) {
	fileStore := storage.NewFileStore(filepath.Join(t.TempDir(), "data"), file.NewFileService(), zerolog.Nop())
	svc := services.NewLocationService(mocks.StaticSelector{Store: fileStore}, nil, zerolog.Nop())
	ctx := context.Background()

	assert.Empty(t, svc.ListAll(ctx))

	_, err := svc.Record(ctx, []byte(validPayload), deviceinfo.Headers{AcceptLanguage: "fr-FR,fr;q=0.9"})
	require.NoError(t, err)

	got := svc.ListAll(ctx)
	require.Len(t, got, 1)
	assert.Equal(t, models.DeviceAttributes{
		"userAgent":   "Unknown",
		"language":    "fr-FR",
		"os":          "Linux",
		"screenWidth": float64(1920),
	}, got[0].DeviceInfo)
	assert.Equal(t, float64(20), got[0].Extra["accuracy"])
	assert.Contains(t, got[0].Extra, "speed")
	assert.Nil(t, got[0].Extra["speed"])
}
