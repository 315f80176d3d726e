package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"torn_tools/internal/app"
	"torn_tools/internal/deployment"
	"torn_tools/internal/domain/war"
	"torn_tools/internal/history"
	"torn_tools/internal/processing"
	"torn_tools/internal/render"
	"torn_tools/internal/sheets"
	"torn_tools/internal/torn"

	"github.com/rs/zerolog/log"
)

// warhitsPageName is the file name used when deploying the rendered page
const warhitsPageName = "warhits.html"

// sinks are the optional outputs a loaded war status is pushed to
type sinks struct {
	publisher *sheets.WarStatusPublisher
	recorder  *history.Recorder
	deployer  *deployment.SSHDeployer
}

func openSinks(ctx context.Context, config *app.Config) (*sinks, error) {
	s := &sinks{}

	if config.SpreadsheetID != "" {
		sheetsClient, err := sheets.NewClient(ctx, config.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to create sheets client: %w", err)
		}
		s.publisher = sheets.NewWarStatusPublisher(sheetsClient, config.SpreadsheetID, config.DisplayLocation())
	}

	if config.BigQueryProject != "" {
		recorder, err := history.NewRecorder(ctx, config)
		if err != nil {
			return nil, fmt.Errorf("failed to create history recorder: %w", err)
		}
		s.recorder = recorder
	}

	if config.DeployURL != "" {
		s.deployer = deployment.NewSSHDeployer(config.DeployURL, config.DeployKeyFile)
	}

	return s, nil
}

func (s *sinks) Close() {
	if s.recorder != nil {
		if err := s.recorder.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close history recorder")
		}
	}
	if s.deployer != nil {
		if err := s.deployer.Disconnect(); err != nil {
			log.Warn().Err(err).Msg("Failed to disconnect deployer")
		}
	}
}

// push sends a status to every configured sink. Sink failures are logged
// and do not stop the others.
func (s *sinks) push(ctx context.Context, status *app.WarStatus, page []byte) {
	if s.publisher != nil {
		if _, err := s.publisher.PublishIfNewer(ctx, status); err != nil {
			log.Error().Err(err).Msg("Failed to publish war status to sheets")
		}
	}
	if s.recorder != nil {
		if err := s.recorder.Record(ctx, status); err != nil {
			log.Error().Err(err).Msg("Failed to record war status history")
		}
	}
	if s.deployer != nil && page != nil {
		if err := s.deployer.DeployContent(ctx, warhitsPageName, page); err != nil {
			log.Error().Err(err).Msg("Failed to deploy warhits page")
		}
	}
}

func writeFragments(w io.Writer, fragments render.Fragments) {
	if fragments.ErrorMessage != "" {
		fmt.Fprintf(w, "Error: %s\n", fragments.ErrorMessage)
		return
	}
	fmt.Fprintf(w, "Username: %s [%s]\n", fragments.Username, fragments.UserID)
	fmt.Fprintf(w, "Faction: %s [%s]\n", fragments.FactionName, fragments.FactionID)
	fmt.Fprintf(w, "%s\n", fragments.WarContent)
}

func runWarhits(ctx context.Context, config *app.Config, args []string) error {
	fs := flag.NewFlagSet("warhits", flag.ContinueOnError)
	interval := fs.Duration("interval", 0, "Interval between loads (e.g., 5m); 0 adapts to the war state")
	runOnce := fs.Bool("once", false, "Load once and exit (don't start scheduler)")
	asJSON := fs.Bool("json", false, "Print the war status as JSON")
	outFile := fs.String("out", "", "Also write the rendered page to this file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	log.Info().
		Dur("interval", *interval).
		Bool("run_once", *runOnce).
		Msg("Starting war status loader")

	clients := torn.ForKeys(config.APIBaseURL)
	store, auth, err := openAuth(ctx, config, clients)
	if err != nil {
		return err
	}
	apiKey, err := auth.APIKey(ctx, config.TornAPIKey)
	store.Close()
	if err != nil {
		return fmt.Errorf("failed to read stored API key: %w", err)
	}
	if apiKey == "" {
		return fmt.Errorf("no API key: run login or set TORN_API_KEY")
	}

	out, err := openSinks(ctx, config)
	if err != nil {
		return err
	}
	defer out.Close()

	tornClient := clients(apiKey)
	tracker := processing.NewAPICallTracker()
	service := processing.NewWarStatusService(tornClient, tracker)
	renderer := render.NewRenderer(config.DisplayLocation())
	stateManager := war.NewWarStateManager()

	loadOnce := func() {
		log.Debug().Msg("Starting war status cycle")

		// Reset API call counter at the start of each cycle
		tornClient.ResetAPICallCount()
		tracker.StartCycle()
		expected := tracker.ExpectedCalls(stateManager.GetCurrentState() == war.ActiveWar)

		status := service.Load(ctx)
		stateManager.UpdateFromStatus(status)

		var page bytes.Buffer
		if err := renderer.RenderPage(&page, render.AuthView{LoggedIn: true, Username: usernameOf(status)}, status); err != nil {
			log.Error().Err(err).Msg("Failed to render warhits page")
		}

		if *asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(status); err != nil {
				log.Error().Err(err).Msg("Failed to encode war status")
			}
		} else if fragments, err := renderer.RenderFragments(status); err != nil {
			log.Error().Err(err).Msg("Failed to render war status")
		} else {
			writeFragments(os.Stdout, fragments)
		}

		if *outFile != "" && page.Len() > 0 {
			if err := os.WriteFile(*outFile, page.Bytes(), 0o644); err != nil {
				log.Error().Err(err).Str("path", *outFile).Msg("Failed to write warhits page")
			}
		}

		if !status.Failed() {
			var deployed []byte
			if page.Len() > 0 {
				deployed = page.Bytes()
			}
			out.push(ctx, status, deployed)
		}

		tracker.LogCycleSummary(ctx)
		log.Info().
			Int64("api_calls", tornClient.GetAPICallCount()).
			Int64("expected_calls", expected).
			Str("war_state", stateManager.GetCurrentState().String()).
			Msg("Completed war status cycle")
	}

	// Run initial load
	loadOnce()

	// Exit if run-once flag is set
	if *runOnce {
		log.Info().Msg("Run-once mode: exiting after initial load")
		return nil
	}

	for {
		wait := stateManager.NextInterval(*interval)
		log.Info().
			Dur("next_in", wait).
			Str("war_state", stateManager.GetCurrentState().String()).
			Msg("Waiting for next war status cycle")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Info().Msg("Shutting down war status loader")
			return nil
		case <-timer.C:
			loadOnce()
		}
	}
}

func usernameOf(status *app.WarStatus) string {
	if status.Profile != nil && status.Profile.Name != "" {
		return status.Profile.Name
	}
	return render.UnknownName
}
