// Package broker orchestrates the OAuth authorization-code callback:
// exchange the code, resolve who the tokens belong to, persist them.
// Every failure is terminal for the one callback invocation; an OAuth
// redirect is interactive, so nothing here retries.
package broker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/niqdata/oura-relay/internal/oura"
	"github.com/niqdata/oura-relay/internal/store"
)

const exchangeTimeout = 30 * time.Second

// maxErrorBody caps how much of the token endpoint's error body is kept.
const maxErrorBody = 300

// IdentityResolver resolves the owner of a fresh access token. It never
// fails; worst case it returns the anonymous identity.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, accessToken string) oura.Identity
}

// Broker performs the code-for-token exchange and owns writing the result
// into the token store.
type Broker struct {
	oauth    *oauth2.Config
	resolver IdentityResolver
	tokens   store.TokenStore
}

// New builds a Broker around the upstream OAuth client registration.
func New(oauthCfg *oauth2.Config, resolver IdentityResolver, tokens store.TokenStore) *Broker {
	return &Broker{
		oauth:    oauthCfg,
		resolver: resolver,
		tokens:   tokens,
	}
}

// AuthCodeURL returns the upstream authorize URL for the given state.
func (b *Broker) AuthCodeURL(state string) string {
	return b.oauth.AuthCodeURL(state)
}

// HandleCallback exchanges an authorization code for tokens and persists
// them under the resolved identity. It returns the identity the tokens
// were stored under, or one of the broker error types.
func (b *Broker) HandleCallback(ctx context.Context, code string) (oura.Identity, error) {
	if code == "" {
		return oura.Identity{}, ErrMissingCode
	}

	exCtx, cancel := context.WithTimeout(ctx, exchangeTimeout)
	defer cancel()

	tok, err := b.oauth.Exchange(exCtx, code)
	if err != nil {
		// x/oauth2 reports a 2xx response without an access_token as a
		// plain error rather than a RetrieveError.
		if strings.Contains(err.Error(), "missing access_token") {
			return oura.Identity{}, ErrTokenMissing
		}

		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			body := retrieveErr.Body
			if len(body) > maxErrorBody {
				body = body[:maxErrorBody]
			}
			status := 0
			if retrieveErr.Response != nil {
				status = retrieveErr.Response.StatusCode
			}
			log.Warn().Int("status", status).Msg("token exchange rejected")
			return oura.Identity{}, ExchangeFailed{Status: status, Body: string(body)}
		}
		log.Error().Err(err).Msg("token exchange request failed")
		return oura.Identity{}, ExchangeFailed{Body: err.Error()}
	}

	if tok.AccessToken == "" {
		return oura.Identity{}, ErrTokenMissing
	}

	identity := b.resolver.ResolveIdentity(ctx, tok.AccessToken)
	if !identity.Resolved {
		log.Warn().Msg("identity resolution failed, storing tokens as anonymous")
	}

	if err := b.tokens.Upsert(ctx, identity.Email, tok.AccessToken, tok.RefreshToken); err != nil {
		log.Error().Err(err).Str("email", identity.Email).Msg("failed to persist tokens")
		return oura.Identity{}, PersistFailed{Err: err}
	}

	// The store is not observed transactionally by the caller, so confirm
	// the write actually landed before reporting success.
	if _, err := b.tokens.Lookup(ctx, identity.Email); err != nil {
		log.Error().Err(err).Str("email", identity.Email).Msg("token missing after write")
		return oura.Identity{}, PersistFailed{Err: fmt.Errorf("verify after write: %w", err)}
	}

	log.Info().
		Str("email", identity.Email).
		Bool("resolved", identity.Resolved).
		Msg("tokens stored")

	return identity, nil
}
