package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"torn_tools/internal/app"
	"torn_tools/internal/session"
	"torn_tools/internal/torn"

	"github.com/rs/zerolog/log"
)

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, config *app.Config, args []string) error
}

var commands = []command{
	{"warhits", "load the war status once or on an interval", runWarhits},
	{"serve", "serve the warhits page over HTTP", runServe},
	{"login", "store an API key", runLogin},
	{"logout", "remove the stored API key", runLogout},
	{"whoami", "show the logged in user", runWhoami},
	{"lease", "plan a lease extension from a saved properties page", runLease},
	{"search", "filter a saved user search page", runSearch},
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [flags]\n\nCommands:\n", os.Args[0])
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-8s %s\n", c.name, c.summary)
	}
}

func main() {
	app.SetupEnvironment()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	name := os.Args[1]
	var selected *command
	for i := range commands {
		if commands[i].name == name {
			selected = &commands[i]
			break
		}
	}
	if selected == nil {
		usage()
		os.Exit(2)
	}

	// Load configuration
	config, err := app.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := selected.run(ctx, config, os.Args[2:]); err != nil {
		stop()
		log.Fatal().
			Err(err).
			Str("command", name).
			Msg("Command failed")
	}
}

func openStore(ctx context.Context, config *app.Config) (*session.Store, error) {
	store, err := session.Open(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	return store, nil
}

// openAuth opens the session store and builds the login helper on top of it.
// Profile lookups use clients from the given per-key constructor.
func openAuth(ctx context.Context, config *app.Config, clients func(apiKey string) *torn.Client) (*session.Store, *session.Auth, error) {
	store, err := openStore(ctx, config)
	if err != nil {
		return nil, nil, err
	}

	auth := session.NewAuth(store, func(apiKey string) session.ProfileFetcher {
		return clients(apiKey)
	})
	return store, auth, nil
}
