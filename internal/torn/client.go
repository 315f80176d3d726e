package torn

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"torn_tools/internal/app"
	"torn_tools/internal/config"

	"github.com/rs/zerolog/log"
)

// AttackLogLimit is the page size requested from /user/attacksfull. Only one
// page is ever fetched.
const AttackLogLimit = 1000

type Client struct {
	apiKey       string
	baseURL      string
	client       *http.Client
	now          func() time.Time
	apiCallCount int64
	apiCallMutex sync.Mutex
}

func NewClient(apiKey string) *Client {
	return NewClientWithBaseURL(apiKey, app.DefaultAPIBaseURL)
}

// NewClientWithBaseURL creates a client against a non-default API root
func NewClientWithBaseURL(apiKey, baseURL string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: config.DefaultTimeouts.TornAPI.Request,
		},
		now: time.Now,
	}
}

// WithAPIKey returns a client sharing this client's transport but using a different key
func (c *Client) WithAPIKey(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: c.baseURL,
		client:  c.client,
		now:     c.now,
	}
}

// ForKeys returns a constructor of per-key clients against baseURL that all
// share one HTTP transport
func ForKeys(baseURL string) func(apiKey string) *Client {
	return NewClientWithBaseURL("", baseURL).WithAPIKey
}

// IncrementAPICall safely increments the API call counter
func (c *Client) IncrementAPICall() {
	c.apiCallMutex.Lock()
	c.apiCallCount++
	c.apiCallMutex.Unlock()
}

// GetAPICallCount returns the current API call count
func (c *Client) GetAPICallCount() int64 {
	c.apiCallMutex.Lock()
	defer c.apiCallMutex.Unlock()
	return c.apiCallCount
}

// ResetAPICallCount resets the API call counter to zero
func (c *Client) ResetAPICallCount() {
	c.apiCallMutex.Lock()
	c.apiCallCount = 0
	c.apiCallMutex.Unlock()
}

// makeAPIRequest creates and executes an HTTP GET request to the Torn API
func (c *Client) makeAPIRequest(ctx context.Context, path string, query url.Values) (*http.Response, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "ApiKey "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		log.Debug().
			Err(err).
			Str("path", path).
			Msg("API request failed")
		return nil, fmt.Errorf("failed to make request: %w", err)
	}

	c.IncrementAPICall()
	return resp, nil
}

// handleAPIResponse checks the status, reads the body and decodes it into out.
// what names the resource for error messages ("user data", "wars data", ...).
func (c *Client) handleAPIResponse(resp *http.Response, what string, out any) error {
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		log.Debug().
			Int("status", resp.StatusCode).
			Str("resource", what).
			Str("body", string(body)).
			Msg("API error response")
		return &APIError{Resource: what, StatusCode: resp.StatusCode, Body: string(body)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", what, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", what, err)
	}

	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, what string, out any) error {
	resp, err := c.makeAPIRequest(ctx, path, query)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", what, err)
	}
	return c.handleAPIResponse(resp, what, out)
}

// GetUserBasic fetches the key owner's profile from /user/basic
func (c *Client) GetUserBasic(ctx context.Context) (*app.UserBasicResponse, error) {
	var basic app.UserBasicResponse
	if err := c.get(ctx, "/user/basic", nil, "user data", &basic); err != nil {
		return nil, err
	}

	event := log.Debug()
	if basic.Profile != nil {
		event = event.Int("player_id", basic.Profile.ID).Str("name", basic.Profile.Name)
	}
	event.Msg("Fetched user basic data")

	return &basic, nil
}

// GetUserFaction fetches the key owner's faction membership from /user/faction
func (c *Client) GetUserFaction(ctx context.Context) (*app.UserFactionResponse, error) {
	var faction app.UserFactionResponse
	if err := c.get(ctx, "/user/faction", nil, "faction data", &faction); err != nil {
		return nil, err
	}

	event := log.Debug().Bool("has_faction", faction.Faction != nil)
	if faction.Faction != nil {
		event = event.Int("faction_id", faction.Faction.ID)
	}
	event.Msg("Fetched user faction data")

	return &faction, nil
}

// GetFactionWars fetches faction wars from the API
func (c *Client) GetFactionWars(ctx context.Context) (*app.WarResponse, error) {
	var warResponse app.WarResponse
	if err := c.get(ctx, "/faction/wars", nil, "wars data", &warResponse); err != nil {
		return nil, err
	}

	log.Debug().
		Bool("has_ranked_war", warResponse.Wars.Ranked != nil).
		Int("raid_wars", len(warResponse.Wars.Raids)).
		Int("territory_wars", len(warResponse.Wars.Territory)).
		Msg("Successfully fetched faction wars")

	return &warResponse, nil
}

// GetTimestamp fetches the current server time
func (c *Client) GetTimestamp(ctx context.Context) (*app.TimestampResponse, error) {
	var ts app.TimestampResponse
	if err := c.get(ctx, "/torn/timestamp", nil, "timestamp", &ts); err != nil {
		return nil, err
	}

	log.Debug().Int64("timestamp", ts.Timestamp).Msg("Fetched server timestamp")
	return &ts, nil
}

// GetUserAttacks fetches a single page of the key owner's attack log starting at from.
// A millisecond timestamp parameter is added so intermediaries never serve a stale page.
func (c *Client) GetUserAttacks(ctx context.Context, from int64, limit int) (*app.AttackResponse, error) {
	if limit <= 0 || limit > AttackLogLimit {
		limit = AttackLogLimit
	}

	query := url.Values{}
	query.Set("from", strconv.FormatInt(from, 10))
	query.Set("limit", strconv.Itoa(limit))
	query.Set("timestamp", strconv.FormatInt(c.now().UnixMilli(), 10))

	log.Debug().
		Int64("from", from).
		Str("from_time", time.Unix(from, 0).UTC().Format("2006-01-02 15:04:05")).
		Int("limit", limit).
		Msg("Fetching user attacks")

	var attackResponse app.AttackResponse
	if err := c.get(ctx, "/user/attacksfull", query, "attacks", &attackResponse); err != nil {
		return nil, err
	}

	log.Debug().
		Int("attacks_count", len(attackResponse.Attacks)).
		Int64("from", from).
		Msg("Successfully fetched user attacks")

	return &attackResponse, nil
}
