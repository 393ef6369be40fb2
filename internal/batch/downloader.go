// Package batch implements the bulk download client: list every identity
// the relay knows, then pull each data category to a local JSON file.
// It is pure consumer glue over the relay's public routes.
package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/niqdata/oura-relay/internal/oura"
)

// Downloader pulls per-user category files from a running relay.
type Downloader struct {
	baseURL string
	outDir  string
	http    *http.Client
	now     func() time.Time
}

// New builds a Downloader. baseURL is the relay's address; outDir gets
// one subdirectory per identity.
func New(baseURL, outDir string, timeout time.Duration) *Downloader {
	return &Downloader{
		baseURL: strings.TrimRight(baseURL, "/"),
		outDir:  outDir,
		http:    &http.Client{Timeout: timeout},
		now:     time.Now,
	}
}

// Run downloads every category for every known identity. Individual
// failures are logged and skipped; the run only fails when the user list
// itself cannot be fetched.
func (d *Downloader) Run(ctx context.Context) error {
	users, err := d.Users(ctx)
	if err != nil {
		return err
	}

	log.Info().Int("count", len(users)).Msg("users found")
	if len(users) == 0 {
		log.Info().Msg("no users from server; finish OAuth first, then retry")
		return nil
	}

	for _, email := range users {
		log.Info().Str("email", email).Msg("processing user")
		for _, category := range oura.AllCategories() {
			path, err := d.DownloadOne(ctx, email, category.String())
			if err != nil {
				log.Error().Err(err).
					Str("email", email).
					Str("category", category.String()).
					Msg("download failed")
				continue
			}
			log.Info().Str("path", path).Msg("saved")
		}
	}

	log.Info().Msg("all downloads completed")
	return nil
}

// Users fetches the identity list from GET /users.
func (d *Downloader) Users(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/users", nil)
	if err != nil {
		return nil, err
	}

	resp, err := d.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch users: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return nil, fmt.Errorf("fetch users: %d %s", resp.StatusCode, string(body))
	}

	var users []string
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

// DownloadOne fetches a single category for one identity and writes the
// raw response bytes to <outDir>/<email>/<category>_<date>.json. The body
// is saved as received, valid JSON or not, so a failed day can still be
// inspected.
func (d *Downloader) DownloadOne(ctx context.Context, email, category string) (string, error) {
	url := fmt.Sprintf("%s/download/%s/%s", d.baseURL, email, category)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := d.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", category, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", category, err)
	}

	if resp.StatusCode != http.StatusOK {
		snippet := body
		if len(snippet) > 300 {
			snippet = snippet[:300]
		}
		return "", fmt.Errorf("fetch %s: %d %s", category, resp.StatusCode, string(snippet))
	}

	if !json.Valid(body) {
		log.Warn().Str("category", category).Msg("response not JSON; saving raw bytes")
	}

	dir := filepath.Join(d.outDir, email)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	name := fmt.Sprintf("%s_%s.json", category, d.now().Format("2006-01-02"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
