package main

import (
	"context"
	"errors"
	"flag"
	"net/http"

	"torn_tools/internal/app"
	timeouts "torn_tools/internal/config"
	"torn_tools/internal/processing"
	"torn_tools/internal/render"
	"torn_tools/internal/server"
	"torn_tools/internal/torn"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func runServe(ctx context.Context, config *app.Config, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", config.HTTPAddr, "Listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	clients := torn.ForKeys(config.APIBaseURL)
	store, auth, err := openAuth(ctx, config, clients)
	if err != nil {
		return err
	}
	defer store.Close()

	tracker := processing.NewAPICallTracker()
	newLoader := func(apiKey string) processing.WarStatusLoader {
		return processing.NewWarStatusService(clients(apiKey), tracker)
	}

	srv := server.NewServer(*addr, auth, newLoader, render.NewRenderer(config.DisplayLocation()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down HTTP server")
	tracker.LogCycleSummary(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.ServerShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
