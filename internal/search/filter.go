package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/rs/zerolog/log"
)

// FilterStateKey is the store key holding the saved filter toggles
const FilterStateKey = "tornAdvancedFilters"

// AttackURLBase is the attack page a result links to
const AttackURLBase = "https://www.torn.com/loader.php"

// FilterState holds the filter toggles. A true status toggle hides users in
// that state.
type FilterState struct {
	FederalJail       bool `json:"federalJail"`
	Traveling         bool `json:"traveling"`
	RIP               bool `json:"rip"`
	ShowAttackButtons bool `json:"showAttackButtons"`
}

// DefaultFilterState hides nothing and shows attack buttons
func DefaultFilterState() FilterState {
	return FilterState{ShowAttackButtons: true}
}

// StateStore persists the filter toggles
type StateStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// ParseFilterState merges saved JSON over the defaults. Keys missing from
// the saved value keep their default.
func ParseFilterState(saved string) (FilterState, error) {
	state := DefaultFilterState()
	if saved == "" {
		return state, nil
	}
	if err := json.Unmarshal([]byte(saved), &state); err != nil {
		return DefaultFilterState(), fmt.Errorf("failed to decode filter state: %w", err)
	}
	return state, nil
}

// LoadFilterState reads the saved toggles. A corrupt saved value is logged
// and replaced by the defaults.
func LoadFilterState(ctx context.Context, store StateStore) (FilterState, error) {
	saved, _, err := store.Get(ctx, FilterStateKey)
	if err != nil {
		return DefaultFilterState(), err
	}
	state, err := ParseFilterState(saved)
	if err != nil {
		log.Warn().
			Err(err).
			Msg("Ignoring saved filter state")
	}
	return state, nil
}

// SaveFilterState persists the toggles
func SaveFilterState(ctx context.Context, store StateStore, state FilterState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode filter state: %w", err)
	}
	return store.Set(ctx, FilterStateKey, string(data))
}

// Hides reports whether the state filters the user out
func (s FilterState) Hides(u User) bool {
	return (s.FederalJail && u.Statuses.FederalJail) ||
		(s.Traveling && u.Statuses.Traveling) ||
		(s.RIP && u.Statuses.RIP)
}

// Apply returns the users the state does not hide, preserving order
func Apply(users []User, state FilterState) []User {
	filtered := make([]User, 0, len(users))
	for _, u := range users {
		if !state.Hides(u) {
			filtered = append(filtered, u)
		}
	}

	log.Debug().
		Int("shown", len(filtered)).
		Int("total", len(users)).
		Msg("Applied search filters")

	return filtered
}

// AttackURL returns the attack page for a user ID
func AttackURL(userID string) string {
	q := url.Values{}
	q.Set("sid", "attack")
	q.Set("user2ID", userID)
	return AttackURLBase + "?" + q.Encode()
}
