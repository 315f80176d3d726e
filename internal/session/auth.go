package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"torn_tools/internal/app"

	"github.com/rs/zerolog/log"
)

// DefaultUsername is shown when the key owner's name cannot be fetched
const DefaultUsername = "User"

// ErrEmptyAPIKey is returned when logging in with a blank key
var ErrEmptyAPIKey = errors.New("Please enter an API key")

// ProfileFetcher fetches the profile of an API key's owner
type ProfileFetcher interface {
	GetUserBasic(ctx context.Context) (*app.UserBasicResponse, error)
}

// KV is the subset of the store used by Auth
type KV interface {
	SaveAPIKey(ctx context.Context, apiKey string) error
	GetAPIKey(ctx context.Context) (string, error)
	RemoveAPIKey(ctx context.Context) error
	SaveUsername(ctx context.Context, username string) error
	GetUsername(ctx context.Context) (string, error)
}

// State describes who is logged in
type State struct {
	LoggedIn bool   `json:"logged_in"`
	Username string `json:"username,omitempty"`
}

// Auth implements login and logout on top of the key-value store
type Auth struct {
	store     KV
	newClient func(apiKey string) ProfileFetcher
}

// NewAuth creates an Auth. newClient builds an API client for a given key.
func NewAuth(store KV, newClient func(apiKey string) ProfileFetcher) *Auth {
	return &Auth{store: store, newClient: newClient}
}

// Login stores the API key and caches its owner's name. A failed profile
// lookup does not fail the login; the name falls back to DefaultUsername.
func (a *Auth) Login(ctx context.Context, apiKey string) (State, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return State{}, ErrEmptyAPIKey
	}

	if err := a.store.SaveAPIKey(ctx, apiKey); err != nil {
		return State{}, fmt.Errorf("failed to save API key: %w", err)
	}

	username, err := a.fetchUsername(ctx, apiKey)
	if err != nil {
		log.Warn().
			Err(err).
			Msg("Failed to fetch username, logging in anyway")
		return State{LoggedIn: true, Username: DefaultUsername}, nil
	}

	if err := a.store.SaveUsername(ctx, username); err != nil {
		log.Warn().
			Err(err).
			Msg("Failed to cache username")
	}

	log.Info().
		Str("username", username).
		Msg("Logged in")

	return State{LoggedIn: true, Username: username}, nil
}

// CurrentUser reports the login state. Without a cached name the profile is
// fetched once and cached.
func (a *Auth) CurrentUser(ctx context.Context) (State, error) {
	apiKey, err := a.store.GetAPIKey(ctx)
	if err != nil {
		return State{}, err
	}
	if strings.TrimSpace(apiKey) == "" {
		return State{}, nil
	}

	username, err := a.store.GetUsername(ctx)
	if err != nil {
		return State{}, err
	}
	if username != "" {
		return State{LoggedIn: true, Username: username}, nil
	}

	username, err = a.fetchUsername(ctx, apiKey)
	if err != nil {
		log.Warn().
			Err(err).
			Msg("Failed to fetch username")
		return State{LoggedIn: true, Username: DefaultUsername}, nil
	}

	if err := a.store.SaveUsername(ctx, username); err != nil {
		log.Warn().
			Err(err).
			Msg("Failed to cache username")
	}

	return State{LoggedIn: true, Username: username}, nil
}

// APIKey returns the stored key, falling back to fallback when none is stored
func (a *Auth) APIKey(ctx context.Context, fallback string) (string, error) {
	apiKey, err := a.store.GetAPIKey(ctx)
	if err != nil {
		return "", err
	}
	if apiKey = strings.TrimSpace(apiKey); apiKey != "" {
		return apiKey, nil
	}
	return strings.TrimSpace(fallback), nil
}

// Logout removes the API key and the cached username
func (a *Auth) Logout(ctx context.Context) error {
	if err := a.store.RemoveAPIKey(ctx); err != nil {
		return fmt.Errorf("failed to remove API key: %w", err)
	}
	log.Info().Msg("Logged out")
	return nil
}

func (a *Auth) fetchUsername(ctx context.Context, apiKey string) (string, error) {
	basic, err := a.newClient(apiKey).GetUserBasic(ctx)
	if err != nil {
		return "", err
	}
	if basic == nil || basic.Profile == nil || basic.Profile.Name == "" {
		return DefaultUsername, nil
	}
	return basic.Profile.Name, nil
}
