package torn

import (
	"context"
	"fmt"
	"net/http"

	"torn_tools/internal/app"
)

// TornAPI defines the interface for interacting with the Torn API
// This separates infrastructure concerns from business logic
type TornAPI interface {
	// Core API endpoints
	GetUserBasic(ctx context.Context) (*app.UserBasicResponse, error)
	GetUserFaction(ctx context.Context) (*app.UserFactionResponse, error)
	GetFactionWars(ctx context.Context) (*app.WarResponse, error)
	GetTimestamp(ctx context.Context) (*app.TimestampResponse, error)
	GetUserAttacks(ctx context.Context, from int64, limit int) (*app.AttackResponse, error)

	// API call tracking
	GetAPICallCount() int64
	IncrementAPICall()
	ResetAPICallCount()
}

// APIError is returned for any non-200 response
type APIError struct {
	Resource   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %d %s", e.Resource, e.StatusCode, http.StatusText(e.StatusCode))
}

var _ TornAPI = (*Client)(nil)
