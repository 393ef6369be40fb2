package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/niqdata/oura-relay/internal/broker"
)

// Home handles GET / with a plain liveness line.
func (s *Server) Home(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, "Oura OAuth relay is running")
}

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"now":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Login handles GET /login: redirect the browser to the upstream
// authorize page with a signed state parameter.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	state, err := s.State.Issue()
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("failed to sign oauth state")
		writeText(w, http.StatusInternalServerError, "Error: could not start login.")
		return
	}
	http.Redirect(w, r, s.Broker.AuthCodeURL(state), http.StatusFound)
}

// Callback handles GET /callback: the OAuth redirect carrying the
// authorization code. Outcomes are short human-readable messages since
// the reader is a person in a browser, not a program.
func (s *Server) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := s.State.Verify(r.URL.Query().Get("state")); err != nil {
		log.Ctx(ctx).Warn().Msg("callback with invalid state parameter")
		writeText(w, http.StatusBadRequest, "Error: invalid state parameter.")
		return
	}

	identity, err := s.Broker.HandleCallback(ctx, r.URL.Query().Get("code"))
	if err != nil {
		var exchangeErr broker.ExchangeFailed
		switch {
		case errors.Is(err, broker.ErrMissingCode):
			writeText(w, http.StatusBadRequest, "Error: No authorization code received.")
		case errors.As(err, &exchangeErr):
			writeText(w, http.StatusBadRequest,
				fmt.Sprintf("Error retrieving token: %d - %s", exchangeErr.Status, exchangeErr.Body))
		case errors.Is(err, broker.ErrTokenMissing):
			writeText(w, http.StatusBadRequest, "Error: token missing in response.")
		default:
			// PersistFailed and anything unexpected.
			writeText(w, http.StatusInternalServerError, "Error: token not saved; check server logs.")
		}
		return
	}

	writeText(w, http.StatusOK,
		fmt.Sprintf("Access granted! Token for %s has been stored.", identity.Email))
}

// Users handles GET /users with the sorted identity list.
func (s *Server) Users(w http.ResponseWriter, r *http.Request) {
	emails, err := s.Tokens.ListIdentities(r.Context())
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("failed to list identities")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "Token store unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, emails)
}

// Download handles GET /download/{email}/{data_type}: live-fetch one
// category and stream the JSON through, passing the relay's status along
// verbatim.
func (s *Server) Download(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	dataType := chi.URLParam(r, "data_type")

	payload, status := s.Relay.FetchForUser(r.Context(), email, dataType)
	writeJSON(w, status, payload)
}

// FetchAll handles GET /fetch_all/{email}: every category combined into
// one object, partial failures inlined under "_error".
func (s *Server) FetchAll(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	writeJSON(w, http.StatusOK, s.Relay.FetchAllForUser(r.Context(), email))
}
