package mocks

import (
	"context"
	"sync"

	"torn_tools/internal/app"
)

// TornClient interface defines the methods used by WarStatusService from torn.Client
type TornClient interface {
	GetUserBasic(ctx context.Context) (*app.UserBasicResponse, error)
	GetUserFaction(ctx context.Context) (*app.UserFactionResponse, error)
	GetFactionWars(ctx context.Context) (*app.WarResponse, error)
	GetTimestamp(ctx context.Context) (*app.TimestampResponse, error)
	GetUserAttacks(ctx context.Context, from int64, limit int) (*app.AttackResponse, error)
}

// MockTornClient is a test double for the torn.Client. It is safe for the
// concurrent calls made by the war status service.
type MockTornClient struct {
	// Responses to return
	UserBasicResponse   *app.UserBasicResponse
	UserFactionResponse *app.UserFactionResponse
	FactionWarsResponse *app.WarResponse
	TimestampResponse   *app.TimestampResponse
	UserAttacksResponse *app.AttackResponse

	// Errors to return
	UserBasicError   error
	UserFactionError error
	FactionWarsError error
	TimestampError   error
	UserAttacksError error

	// BlockFactionWars makes GetFactionWars wait for its context to end
	BlockFactionWars bool

	// Call tracking
	GetUserBasicCalled       bool
	GetUserFactionCalled     bool
	GetFactionWarsCalled     bool
	GetTimestampCalled       bool
	GetUserAttacksCalled     bool
	GetUserAttacksCalledWith struct {
		From  int64
		Limit int
	}

	mu sync.Mutex
}

// NewMockTornClient creates a new mock torn client
func NewMockTornClient() *MockTornClient {
	return &MockTornClient{}
}

func (m *MockTornClient) GetUserBasic(ctx context.Context) (*app.UserBasicResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetUserBasicCalled = true
	return m.UserBasicResponse, m.UserBasicError
}

func (m *MockTornClient) GetUserFaction(ctx context.Context) (*app.UserFactionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetUserFactionCalled = true
	return m.UserFactionResponse, m.UserFactionError
}

func (m *MockTornClient) GetFactionWars(ctx context.Context) (*app.WarResponse, error) {
	m.mu.Lock()
	m.GetFactionWarsCalled = true
	block := m.BlockFactionWars
	m.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.FactionWarsResponse, m.FactionWarsError
}

func (m *MockTornClient) GetTimestamp(ctx context.Context) (*app.TimestampResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetTimestampCalled = true
	return m.TimestampResponse, m.TimestampError
}

func (m *MockTornClient) GetUserAttacks(ctx context.Context, from int64, limit int) (*app.AttackResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetUserAttacksCalled = true
	m.GetUserAttacksCalledWith.From = from
	m.GetUserAttacksCalledWith.Limit = limit
	return m.UserAttacksResponse, m.UserAttacksError
}
