package mocks

import (
	"context"

	"github.com/benmeehan/location-recorder/internal/deviceinfo"
	"github.com/benmeehan/location-recorder/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockRecorder is a mock implementation of the location write path
type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) Record(ctx context.Context, payload []byte, headers deviceinfo.Headers) (models.Ack, error) {
	args := m.Called(ctx, payload, headers)
	return args.Get(0).(models.Ack), args.Error(1)
}
