package store

import (
	"context"
	"errors"
	"fmt"
)

// Credential is the per-user token record. Email is the stable key the
// rest of the service uses to refer to a user. An empty RefreshToken
// means the upstream did not issue one.
type Credential struct {
	Email        string `json:"email"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// ErrNotFound indicates no credential exists for the requested identity.
var ErrNotFound = errors.New("credential not found")

// StorageError wraps a backing-store failure so callers can distinguish
// infrastructure faults from missing records.
type StorageError struct {
	Op  string
	Err error
}

func (e StorageError) Error() string {
	return fmt.Sprintf("token store %s: %v", e.Op, e.Err)
}

func (e StorageError) Unwrap() error { return e.Err }

// TokenStore is the only owner of credential records. Upsert must be
// atomic per identity: concurrent writers may race, but a reader never
// observes a half-written token pair.
type TokenStore interface {
	// Upsert inserts or overwrites the token pair for an identity.
	Upsert(ctx context.Context, email, accessToken, refreshToken string) error

	// Lookup returns the stored credential or ErrNotFound.
	Lookup(ctx context.Context, email string) (Credential, error)

	// ListIdentities returns all known identities, lexicographically sorted.
	ListIdentities(ctx context.Context) ([]string, error)
}
