package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/niqdata/oura-relay/internal/authstate"
	"github.com/niqdata/oura-relay/internal/broker"
	"github.com/niqdata/oura-relay/internal/relay"
	"github.com/niqdata/oura-relay/internal/store"
)

// Server wires the core components to the HTTP surface. It holds no
// request state; everything mutable lives behind the token store.
type Server struct {
	Tokens store.TokenStore
	Broker *broker.Broker
	Relay  *relay.Relay
	State  *authstate.Signer
}

// Routes builds the router. The transport layer stays thin: every route
// validates its inputs, delegates, and writes whatever status the core
// decided.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(CorrelationMiddleware)
	r.Use(RequestLogger)

	r.Get("/", s.Home)
	r.Get("/health", s.Health)
	r.Get("/login", s.Login)
	r.Get("/callback", s.Callback)
	r.Get("/users", s.Users)
	r.Get("/download/{email}/{data_type}", s.Download)
	r.Get("/fetch_all/{email}", s.FetchAll)

	return r
}

// writeJSON encodes v with the given status. Encoding failures are logged
// but not recoverable; the status line has already been sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// writeText sends a short human-readable message (callback outcomes).
func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
}
