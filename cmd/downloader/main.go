package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/niqdata/oura-relay/internal/batch"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	log.Logger = log.With().Str("service", "oura-downloader").
		Logger().Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})

	var (
		baseURL string
		outDir  string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "downloader",
		Short: "Download every user's Oura data from a running relay",
		Long: "Lists users from the relay's /users route, then fetches each data " +
			"category per user via /download and writes the raw JSON to local " +
			"per-user files named {category}_{date}.json.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if home, err := os.UserHomeDir(); err == nil {
				if outDir == "" {
					outDir = filepath.Join(home, "Documents", "NIQ_Data")
				}
			}
			log.Info().Str("out", outDir).Str("baseUrl", baseURL).Msg("starting download run")
			return batch.New(baseURL, outDir, timeout).Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", envOr("RENDER_APP_URL", "https://oura-oauth-server.onrender.com"), "relay base URL")
	cmd.Flags().StringVar(&outDir, "out", os.Getenv("NIQ_LOCAL_DIR"), "local output directory (default ~/Documents/NIQ_Data)")
	cmd.Flags().DurationVar(&timeout, "timeout", 60*time.Second, "per-request timeout")

	if err := cmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("download run failed")
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
