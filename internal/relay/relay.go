// Package relay serves per-user data fetches: look up the stored token,
// delegate to the upstream client, normalize failures into JSON-shaped
// error payloads with an HTTP status.
package relay

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/niqdata/oura-relay/internal/oura"
	"github.com/niqdata/oura-relay/internal/store"
)

// Fetcher is the upstream-client surface the relay needs.
type Fetcher interface {
	Fetch(ctx context.Context, category oura.Category, accessToken string, dateRange *oura.DateRange) (any, error)
}

// Relay resolves tokens and proxies category fetches.
type Relay struct {
	tokens store.TokenStore
	client Fetcher
}

// New builds a Relay.
func New(tokens store.TokenStore, client Fetcher) *Relay {
	return &Relay{tokens: tokens, client: client}
}

// FetchForUser fetches one category for one identity. The returned
// payload is always JSON-encodable; on any non-200 status it is an object
// with an "error" key, matching what the transport layer sends verbatim.
func (r *Relay) FetchForUser(ctx context.Context, email, slug string) (any, int) {
	cred, err := r.tokens.Lookup(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return map[string]any{"error": "User not found"}, http.StatusNotFound
	}
	if err != nil {
		log.Error().Err(err).Str("email", email).Msg("token lookup failed")
		return map[string]any{"error": "Token store unavailable"}, http.StatusInternalServerError
	}

	category, ok := oura.ParseCategory(slug)
	if !ok {
		return map[string]any{"error": fmt.Sprintf("Unknown data_type '%s'", slug)}, http.StatusBadRequest
	}

	payload, err := r.client.Fetch(ctx, category, cred.AccessToken, nil)
	if err != nil {
		return errorPayload(err), http.StatusBadGateway
	}
	return payload, http.StatusOK
}

// FetchAllForUser fetches every category for one identity. Categories are
// fetched concurrently; a failing category is recorded under "_error" and
// never prevents its siblings from being attempted.
func (r *Relay) FetchAllForUser(ctx context.Context, email string) map[string]any {
	results := make(map[string]any, len(oura.AllCategories()))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	for _, category := range oura.AllCategories() {
		category := category
		g.Go(func() error {
			payload, status := r.FetchForUser(gctx, email, category.String())

			mu.Lock()
			defer mu.Unlock()
			if status == http.StatusOK {
				results[category.String()] = payload
			} else {
				results[category.String()] = map[string]any{"_error": payload}
			}
			// Failures are captured in the result map; returning nil keeps
			// the group from cancelling the remaining fetches.
			return nil
		})
	}

	_ = g.Wait()
	return results
}

func errorPayload(err error) map[string]any {
	var upstreamErr oura.UpstreamError
	if errors.As(err, &upstreamErr) {
		return map[string]any{
			"error": fmt.Sprintf("Oura error %d", upstreamErr.Status),
			"body":  upstreamErr.Body,
		}
	}

	var transportErr oura.TransportError
	if errors.As(err, &transportErr) {
		return map[string]any{
			"error":  "Network error",
			"detail": transportErr.Err.Error(),
		}
	}

	var decodeErr oura.DecodeError
	if errors.As(err, &decodeErr) {
		return map[string]any{"error": "Invalid JSON from Oura"}
	}

	return map[string]any{"error": err.Error()}
}
