package search

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/harbiz/prospect-cli/pkg/anthropic"
	"github.com/harbiz/prospect-cli/pkg/serper"
)

// --- Serper mock ---

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Search(ctx context.Context, query string) ([]serper.Result, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]serper.Result), args.Error(1)
}

// --- Anthropic mock ---

type mockOracle struct {
	mock.Mock
}

func (m *mockOracle) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
	}
}
