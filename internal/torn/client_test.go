package torn

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// newTestServer serves canned bodies per path and records the last request
func newTestServer(t *testing.T, routes map[string]string, lastRequest **http.Request) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if lastRequest != nil {
			*lastRequest = r
		}
		body, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"not found"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNewClient(t *testing.T) {
	client := NewClient("test_api_key")

	if client.apiKey != "test_api_key" {
		t.Errorf("Expected API key 'test_api_key', got '%s'", client.apiKey)
	}

	if client.baseURL != "https://api.torn.com/v2" {
		t.Errorf("Expected default base URL, got '%s'", client.baseURL)
	}

	if client.client.Timeout != 30*time.Second {
		t.Errorf("Expected timeout 30s, got %v", client.client.Timeout)
	}

	if client.apiCallCount != 0 {
		t.Errorf("Expected API call count 0, got %d", client.apiCallCount)
	}
}

func TestWithAPIKey(t *testing.T) {
	client := NewClientWithBaseURL("first", "http://example.test/v2/")
	other := client.WithAPIKey("second")

	if other.apiKey != "second" {
		t.Errorf("Expected API key 'second', got '%s'", other.apiKey)
	}
	if other.baseURL != "http://example.test/v2" {
		t.Errorf("Expected base URL to carry over, got '%s'", other.baseURL)
	}
	if other.client != client.client {
		t.Error("Expected HTTP client to be shared")
	}
}

func TestForKeys(t *testing.T) {
	clients := ForKeys("http://example.test/v2/")

	first := clients("first")
	second := clients("second")

	if first.apiKey != "first" || second.apiKey != "second" {
		t.Errorf("Expected keys 'first' and 'second', got '%s' and '%s'", first.apiKey, second.apiKey)
	}
	if first.client != second.client {
		t.Error("Expected clients to share one HTTP client")
	}
	if second.baseURL != "http://example.test/v2" {
		t.Errorf("Expected trimmed base URL, got '%s'", second.baseURL)
	}

	first.IncrementAPICall()
	if second.GetAPICallCount() != 0 {
		t.Error("Expected call counts to be tracked per client")
	}
}

func TestAPICallCounter(t *testing.T) {
	client := NewClient("test_api_key")

	if count := client.GetAPICallCount(); count != 0 {
		t.Errorf("Expected initial count 0, got %d", count)
	}

	client.IncrementAPICall()
	if count := client.GetAPICallCount(); count != 1 {
		t.Errorf("Expected count 1 after increment, got %d", count)
	}

	client.IncrementAPICall()
	client.IncrementAPICall()
	if count := client.GetAPICallCount(); count != 3 {
		t.Errorf("Expected count 3 after multiple increments, got %d", count)
	}

	client.ResetAPICallCount()
	if count := client.GetAPICallCount(); count != 0 {
		t.Errorf("Expected count 0 after reset, got %d", count)
	}
}

func TestAuthorizationHeader(t *testing.T) {
	var last *http.Request
	server := newTestServer(t, map[string]string{
		"/v2/user/basic": `{"profile":{"id":42,"name":"Brandhout","level":50}}`,
	}, &last)

	client := NewClientWithBaseURL("secret-key", server.URL+"/v2")
	if _, err := client.GetUserBasic(context.Background()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if got := last.Header.Get("Authorization"); got != "ApiKey secret-key" {
		t.Errorf("Expected Authorization 'ApiKey secret-key', got '%s'", got)
	}
	if last.URL.Query().Get("key") != "" {
		t.Error("Expected API key to stay out of the query string")
	}
}

func TestGetUserBasic(t *testing.T) {
	server := newTestServer(t, map[string]string{
		"/user/basic": `{"profile":{"id":42,"name":"Brandhout","level":50,"gender":"Male"}}`,
	}, nil)

	client := NewClientWithBaseURL("key", server.URL)
	basic, err := client.GetUserBasic(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if basic.Profile == nil {
		t.Fatal("Expected profile to be decoded")
	}
	if basic.Profile.ID != 42 || basic.Profile.Name != "Brandhout" {
		t.Errorf("Unexpected profile %+v", basic.Profile)
	}
	if client.GetAPICallCount() != 1 {
		t.Errorf("Expected 1 API call, got %d", client.GetAPICallCount())
	}
}

func TestGetUserFactionWithoutFaction(t *testing.T) {
	server := newTestServer(t, map[string]string{
		"/user/faction": `{"faction":null}`,
	}, nil)

	client := NewClientWithBaseURL("key", server.URL)
	faction, err := client.GetUserFaction(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if faction.Faction != nil {
		t.Errorf("Expected nil faction, got %+v", faction.Faction)
	}
}

func TestGetFactionWars(t *testing.T) {
	server := newTestServer(t, map[string]string{
		"/faction/wars": `{
			"pacts": [],
			"wars": {
				"ranked": {"war_id": 1, "start": 1000, "end": null, "target": 3000, "winner": null,
					"factions": [{"id": 10, "name": "Ours", "score": 120, "chain": 5}, {"id": 20, "name": "Theirs", "score": 80, "chain": 2}]},
				"raids": [null, {"war_id": 2, "start": 900, "factions": {"20": {"id": 20, "name": "Theirs"}, "10": {"id": 10, "name": "Ours"}}}],
				"territory": [{"war_id": 3, "territory": "XYZ", "start": 950, "factions": [{"id": 30, "name": "Squatters"}, null]}]
			}
		}`,
	}, nil)

	client := NewClientWithBaseURL("key", server.URL)
	wars, err := client.GetFactionWars(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	ranked := wars.Wars.Ranked
	if ranked == nil || ranked.ID != 1 || len(ranked.Factions) != 2 {
		t.Fatalf("Unexpected ranked war %+v", ranked)
	}
	if ranked.Factions[0].Score == nil || *ranked.Factions[0].Score != 120 {
		t.Errorf("Expected score 120, got %v", ranked.Factions[0].Score)
	}

	if len(wars.Wars.Raids) != 2 || wars.Wars.Raids[0] != nil {
		t.Fatalf("Expected null raid entry to be preserved, got %+v", wars.Wars.Raids)
	}
	raid := wars.Wars.Raids[1]
	if len(raid.Factions) != 2 || raid.Factions[0].ID != 10 || raid.Factions[1].ID != 20 {
		t.Errorf("Expected keyed factions in ascending id order, got %+v", raid.Factions)
	}

	territory := wars.Wars.Territory[0]
	if territory.Territory != "XYZ" {
		t.Errorf("Expected territory 'XYZ', got '%s'", territory.Territory)
	}
	if len(territory.Factions) != 1 {
		t.Errorf("Expected null faction entries to be dropped, got %+v", territory.Factions)
	}
}

func TestGetTimestamp(t *testing.T) {
	server := newTestServer(t, map[string]string{
		"/torn/timestamp": `{"timestamp": 1700000000}`,
	}, nil)

	client := NewClientWithBaseURL("key", server.URL)
	ts, err := client.GetTimestamp(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if ts.Timestamp != 1700000000 {
		t.Errorf("Expected timestamp 1700000000, got %d", ts.Timestamp)
	}
}

func TestGetUserAttacks(t *testing.T) {
	var last *http.Request
	server := newTestServer(t, map[string]string{
		"/user/attacksfull": `{"attacks": [
			{"id": 1, "started": 1100, "attacker": {"id": 42, "faction_id": 10}, "defender": {"id": 7, "faction_id": 20}, "result": "Hospitalized", "respect_gain": 2.5},
			{"id": 2, "started": 1200, "attacker": {"id": 42, "faction_id": 10}, "defender": {"id": 8, "faction_id": null}, "result": "Lost", "respect_gain": 0}
		]}`,
	}, &last)

	client := NewClientWithBaseURL("key", server.URL)
	client.now = func() time.Time { return time.UnixMilli(1700000000123) }

	attacks, err := client.GetUserAttacks(context.Background(), 1000, 0)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	query := last.URL.Query()
	if query.Get("from") != "1000" {
		t.Errorf("Expected from=1000, got '%s'", query.Get("from"))
	}
	if query.Get("limit") != "1000" {
		t.Errorf("Expected limit=1000, got '%s'", query.Get("limit"))
	}
	if query.Get("timestamp") != "1700000000123" {
		t.Errorf("Expected cache-busting timestamp, got '%s'", query.Get("timestamp"))
	}

	if len(attacks.Attacks) != 2 {
		t.Fatalf("Expected 2 attacks, got %d", len(attacks.Attacks))
	}
	if attacks.Attacks[0].Defender.FactionID == nil || *attacks.Attacks[0].Defender.FactionID != 20 {
		t.Errorf("Expected defender faction 20, got %v", attacks.Attacks[0].Defender.FactionID)
	}
	if attacks.Attacks[1].Defender.FactionID != nil {
		t.Errorf("Expected nil defender faction, got %v", *attacks.Attacks[1].Defender.FactionID)
	}
}

func TestGetUserAttacksKeyedObject(t *testing.T) {
	server := newTestServer(t, map[string]string{
		"/user/attacksfull": `{"attacks": {"200": {"id": 200, "respect_gain": 1}, "100": {"id": 100, "respect_gain": 2}}}`,
	}, nil)

	client := NewClientWithBaseURL("key", server.URL)
	attacks, err := client.GetUserAttacks(context.Background(), 1, 50)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(attacks.Attacks) != 2 || attacks.Attacks[0].ID != 100 || attacks.Attacks[1].ID != 200 {
		t.Errorf("Expected attacks ordered by key, got %+v", attacks.Attacks)
	}
}

func TestNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"code":2,"error":"Incorrect key"}}`))
	}))
	defer server.Close()

	client := NewClientWithBaseURL("bad", server.URL)

	testCases := []struct {
		name     string
		call     func() error
		expected string
	}{
		{"UserBasic", func() error { _, err := client.GetUserBasic(context.Background()); return err }, "failed to fetch user data: 403 Forbidden"},
		{"UserFaction", func() error { _, err := client.GetUserFaction(context.Background()); return err }, "failed to fetch faction data: 403 Forbidden"},
		{"Wars", func() error { _, err := client.GetFactionWars(context.Background()); return err }, "failed to fetch wars data: 403 Forbidden"},
		{"Timestamp", func() error { _, err := client.GetTimestamp(context.Background()); return err }, "failed to fetch timestamp: 403 Forbidden"},
		{"Attacks", func() error { _, err := client.GetUserAttacks(context.Background(), 1, 1000); return err }, "failed to fetch attacks: 403 Forbidden"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.call()
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if err.Error() != tc.expected {
				t.Errorf("Expected '%s', got '%s'", tc.expected, err.Error())
			}

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("Expected *APIError, got %T", err)
			}
			if !strings.Contains(apiErr.Body, "Incorrect key") {
				t.Errorf("Expected body to be kept, got '%s'", apiErr.Body)
			}
		})
	}
}

func TestMalformedBody(t *testing.T) {
	server := newTestServer(t, map[string]string{
		"/torn/timestamp": `not json`,
	}, nil)

	client := NewClientWithBaseURL("key", server.URL)
	_, err := client.GetTimestamp(context.Background())
	if err == nil {
		t.Fatal("Expected decode error, got nil")
	}
	if !strings.Contains(err.Error(), "failed to decode timestamp") {
		t.Errorf("Expected decode error message, got '%s'", err.Error())
	}
}

func TestCancelledContext(t *testing.T) {
	server := newTestServer(t, map[string]string{"/torn/timestamp": `{"timestamp": 1}`}, nil)
	client := NewClientWithBaseURL("key", server.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.GetTimestamp(ctx); err == nil {
		t.Fatal("Expected error for cancelled context, got nil")
	}
	if client.GetAPICallCount() != 0 {
		t.Errorf("Expected failed request not to be counted, got %d", client.GetAPICallCount())
	}
}
