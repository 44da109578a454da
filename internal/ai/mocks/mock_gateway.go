package mocks

import (
	"context"

	"documind/internal/ai"

	"github.com/stretchr/testify/mock"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) ChatRespond(ctx context.Context, messages []ai.Message) (string, error) {
	args := m.Called(ctx, messages)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) Analyze(ctx context.Context, content string) (string, error) {
	args := m.Called(ctx, content)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) Generate(ctx context.Context, documentType, title, description string) (string, error) {
	args := m.Called(ctx, documentType, title, description)
	return args.String(0), args.Error(1)
}
