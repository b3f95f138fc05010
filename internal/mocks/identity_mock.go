package mocks

import (
	"context"

	"github.com/benmeehan/location-recorder/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockDeviceInfo is a mock implementation of the DeviceInfoInterface
type MockDeviceInfo struct {
	mock.Mock
}

func (m *MockDeviceInfo) LoadDeviceInfo(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockDeviceInfo) GetDeviceInfo() models.DeviceInfo {
	args := m.Called()
	return args.Get(0).(models.DeviceInfo)
}
