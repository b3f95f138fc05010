package mocks

import (
	"context"

	"github.com/benmeehan/location-recorder/internal/models"
	"github.com/benmeehan/location-recorder/internal/storage"
	"github.com/stretchr/testify/mock"
)

// MockStore is a mock implementation of storage.Store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Kind() storage.Kind {
	args := m.Called()
	return args.Get(0).(storage.Kind)
}

func (m *MockStore) Save(ctx context.Context, record models.LocationData) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockStore) List(ctx context.Context) []models.LocationData {
	args := m.Called(ctx)
	return args.Get(0).([]models.LocationData)
}

// StaticSelector always selects the same store.
type StaticSelector struct {
	Store storage.Store
}

func (s StaticSelector) Select() storage.Store {
	return s.Store
}
