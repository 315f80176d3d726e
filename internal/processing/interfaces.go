package processing

import (
	"context"

	"torn_tools/internal/app"
)

// TornClientInterface defines the torn API client methods used by WarStatusService
type TornClientInterface interface {
	GetUserBasic(ctx context.Context) (*app.UserBasicResponse, error)
	GetUserFaction(ctx context.Context) (*app.UserFactionResponse, error)
	GetFactionWars(ctx context.Context) (*app.WarResponse, error)
	GetTimestamp(ctx context.Context) (*app.TimestampResponse, error)
	GetUserAttacks(ctx context.Context, from int64, limit int) (*app.AttackResponse, error)
}

// APICallTrackerInterface defines the call accounting used by WarStatusService
type APICallTrackerInterface interface {
	RecordCall(endpoint string)
	StartCycle()
	LogCycleSummary(ctx context.Context)
}

// WarStatusLoader produces one aggregated war status per call
type WarStatusLoader interface {
	Load(ctx context.Context) *app.WarStatus
}

// Endpoint names recorded by the call tracker
const (
	EndpointUserBasic   = "user_basic"
	EndpointUserFaction = "user_faction"
	EndpointFactionWars = "faction_wars"
	EndpointTimestamp   = "torn_timestamp"
	EndpointUserAttacks = "user_attacks"
)
