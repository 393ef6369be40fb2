package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/niqdata/oura-relay/internal/authstate"
	"github.com/niqdata/oura-relay/internal/broker"
	"github.com/niqdata/oura-relay/internal/config"
	"github.com/niqdata/oura-relay/internal/db"
	"github.com/niqdata/oura-relay/internal/httpapi"
	"github.com/niqdata/oura-relay/internal/oura"
	"github.com/niqdata/oura-relay/internal/relay"
	"github.com/niqdata/oura-relay/internal/store"
)

func main() {
	// Configure structured logging
	zerolog.TimeFieldFormat = time.RFC3339Nano
	log.Logger = log.With().Str("service", "oura-relay").Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	// Pretty logging for local dev (only when explicitly set to "dev")
	if cfg.Env == "dev" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	}

	log.Info().
		Str("redirectUri", cfg.OAuth.RedirectURI).
		Bool("stateSigning", cfg.OAuth.StateSecret != "").
		Msg("oauth client configured")

	ctx := context.Background()

	// Token store: Postgres when DATABASE_URL is set, otherwise in-memory
	// (tokens lost on restart; fine for local runs)
	var tokens store.TokenStore
	if cfg.DatabaseURL != "" {
		pool, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to postgres")
		}
		defer pool.Close()

		pg := store.NewPostgresStore(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to ensure schema")
		}
		tokens = pg
		log.Info().Msg("postgres token store ready")
	} else {
		tokens = store.NewMemoryStore()
		log.Warn().Msg("DATABASE_URL not set; using in-memory token store")
	}

	ouraClient := oura.NewClient(cfg.Upstream.APIBaseURL)

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.OAuth.ClientID,
		ClientSecret: cfg.OAuth.ClientSecret,
		RedirectURL:  cfg.OAuth.RedirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL:  cfg.Upstream.AuthorizeURL,
			TokenURL: cfg.Upstream.TokenURL,
		},
	}

	srv := &httpapi.Server{
		Tokens: tokens,
		Broker: broker.New(oauthCfg, ouraClient, tokens),
		Relay:  relay.New(tokens, ouraClient),
		State:  authstate.NewSigner(cfg.OAuth.StateSecret, cfg.OAuth.StateTTL),
	}

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second, // ranged upstream fetches may take up to 60s
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("server stopped")
}
