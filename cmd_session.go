package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"torn_tools/internal/app"
	"torn_tools/internal/torn"
)

func runLogin(ctx context.Context, config *app.Config, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	apiKey := fs.String("key", "", "Torn API key (read from stdin when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	key := *apiKey
	if key == "" {
		fmt.Fprint(os.Stderr, "Enter API Key: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("failed to read API key: %w", err)
		}
		key = line
	}

	store, auth, err := openAuth(ctx, config, torn.ForKeys(config.APIBaseURL))
	if err != nil {
		return err
	}
	defer store.Close()

	state, err := auth.Login(ctx, strings.TrimSpace(key))
	if err != nil {
		return err
	}

	fmt.Printf("Logged in as %s\n", state.Username)
	return nil
}

func runLogout(ctx context.Context, config *app.Config, args []string) error {
	store, auth, err := openAuth(ctx, config, torn.ForKeys(config.APIBaseURL))
	if err != nil {
		return err
	}
	defer store.Close()

	if err := auth.Logout(ctx); err != nil {
		return err
	}

	fmt.Println("Logged out")
	return nil
}

func runWhoami(ctx context.Context, config *app.Config, args []string) error {
	store, auth, err := openAuth(ctx, config, torn.ForKeys(config.APIBaseURL))
	if err != nil {
		return err
	}
	defer store.Close()

	state, err := auth.CurrentUser(ctx)
	if err != nil {
		return err
	}

	if !state.LoggedIn {
		fmt.Println("Not logged in")
		return nil
	}
	fmt.Printf("Logged in as %s\n", state.Username)
	return nil
}
