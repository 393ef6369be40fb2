// Package authstate issues and verifies the OAuth state parameter used in
// the upstream authorization redirect. The state is a short-lived HS256
// JWT, so the callback can reject redirects this server never initiated
// without keeping any server-side session.
package authstate

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidState covers expired, tampered, or foreign state values.
var ErrInvalidState = errors.New("invalid oauth state")

// Signer issues and checks state tokens. A Signer with an empty secret is
// disabled: Issue returns "" and Verify accepts anything, which keeps
// manually-initiated callbacks (no /login step) working.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner builds a Signer. ttl bounds how long a login redirect may
// take before the callback rejects it.
func NewSigner(secret string, ttl time.Duration) *Signer {
	return &Signer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Enabled reports whether state verification is active.
func (s *Signer) Enabled() bool { return len(s.secret) > 0 }

// Issue mints a fresh state token.
func (s *Signer) Issue() (string, error) {
	if !s.Enabled() {
		return "", nil
	}

	now := s.now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.New().String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify checks a state token received on the callback.
func (s *Signer) Verify(state string) error {
	if !s.Enabled() {
		return nil
	}
	if state == "" {
		return ErrInvalidState
	}

	token, err := jwt.ParseWithClaims(state, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidState
			}
			return s.secret, nil
		},
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return ErrInvalidState
	}
	return nil
}
