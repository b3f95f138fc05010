package mocks

import (
	"context"

	"github.com/benmeehan/location-recorder/internal/models"
	"github.com/benmeehan/location-recorder/pkg/location"
	"github.com/stretchr/testify/mock"
)

// MockProvider is a mock implementation of location.Provider
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) GetLocation(ctx context.Context) (location.Location, error) {
	args := m.Called(ctx)
	return args.Get(0).(location.Location), args.Error(1)
}

func (m *MockProvider) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockPublisher is a mock implementation of the reporter's Publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, record models.LocationData) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}
