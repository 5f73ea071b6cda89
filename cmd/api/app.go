package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"jizdninerad.cz/internal/app"
	"jizdninerad.cz/internal/appconf"
	"jizdninerad.cz/internal/clock"
	"jizdninerad.cz/internal/departures"
	"jizdninerad.cz/internal/golemio"
	"jizdninerad.cz/internal/logging"
	"jizdninerad.cz/internal/metrics"
	"jizdninerad.cz/internal/restapi"
	"jizdninerad.cz/internal/webui"
)

const shutdownTimeout = 10 * time.Second

// BuildApplication wires the shared dependencies from cfg.
func BuildApplication(cfg appconf.Config) (*app.Application, error) {
	logger := logging.NewLogger(logging.Options{
		JSON:    cfg.Env == appconf.Production,
		Verbose: cfg.Verbose,
		Output:  os.Stdout,
	})

	loc, err := clock.LoadLocationWithUTCFallBack(cfg.Timezone)
	if err != nil {
		logging.LogError(logger, "unknown timezone, using UTC", err, slog.String("timezone", cfg.Timezone))
	}

	m := metrics.NewWithLogger(logger)

	client, err := golemio.NewClient(golemio.Config{
		BaseURL:     cfg.Golemio.BaseURL,
		AccessToken: cfg.Golemio.AccessToken,
		Timeout:     cfg.Golemio.Timeout,
	}, logger, m)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize departure board client: %w", err)
	}

	return &app.Application{
		Config:     cfg,
		Logger:     logger,
		Clock:      clock.RealClock{},
		Metrics:    m,
		Location:   loc,
		Departures: departures.NewService(client, logger, m),
	}, nil
}

// CreateServer routes the API and the web pages on one mux.
func CreateServer(coreApp *app.Application, cfg appconf.Config) (*http.Server, *restapi.RestAPI) {
	api := restapi.NewRestAPI(coreApp)

	mux := http.NewServeMux()
	api.SetRoutes(mux)
	webui.New(coreApp, api.RateLimited).SetWebUIRoutes(mux)

	// The upstream may take its full timeout before we start writing.
	writeTimeout := 10 * time.Second
	if cfg.Golemio.Timeout+5*time.Second > writeTimeout {
		writeTimeout = cfg.Golemio.Timeout + 5*time.Second
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      api.Handler(mux),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: writeTimeout,
		ErrorLog:     slog.NewLogLogger(coreApp.Logger.Handler(), slog.LevelError),
	}

	return srv, api
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, srv *http.Server, api *restapi.RestAPI, logger *slog.Logger) error {
	defer api.Shutdown()

	serverErr := make(chan error, 1)
	go func() {
		logging.LogOperation(logger, "server_starting", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err, ok := <-serverErr:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logging.LogOperation(logger, "server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
