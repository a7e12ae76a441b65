package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"salespulse/internal/dataprocessing"
)

// MockLoader is a mock for the Loader interface
type MockLoader struct {
	mock.Mock
}

func (m *MockLoader) Load(ctx context.Context) (*dataprocessing.LoadResult, error) {
	args := m.Called(ctx)
	result, _ := args.Get(0).(*dataprocessing.LoadResult)
	return result, args.Error(1)
}

func (m *MockLoader) Describe() string {
	return "mock loader"
}
