package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/harbiz/prospect-cli/internal/model"
	"github.com/harbiz/prospect-cli/internal/store"
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

// --- Oracle mock ---

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

// --- Store mock ---

type mockStore struct {
	mock.Mock
}

func (m *mockStore) CreateSearchRun(ctx context.Context, run model.SearchRun) (string, error) {
	args := m.Called(ctx, run)
	return args.String(0), args.Error(1)
}

func (m *mockStore) UpsertProfiles(ctx context.Context, profiles []model.Profile) ([]model.ProfileRef, error) {
	args := m.Called(ctx, profiles)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ProfileRef), args.Error(1)
}

func (m *mockStore) UpsertLeads(ctx context.Context, leads []model.Lead) error {
	args := m.Called(ctx, leads)
	return args.Error(0)
}

func (m *mockStore) ListLeads(ctx context.Context, filter store.LeadFilter) ([]model.Lead, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Lead), args.Error(1)
}

func (m *mockStore) Migrate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
