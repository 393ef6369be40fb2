package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// PostgresStore is the durable TokenStore backed by a pgx pool.
type PostgresStore struct {
	DB *pgxpool.Pool
}

// NewPostgresStore wraps an existing pool.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{DB: db}
}

// EnsureSchema creates the users table and its unique index if they are
// missing. Older databases created before refresh tokens existed are
// migrated in place.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id            BIGSERIAL PRIMARY KEY,
			email         TEXT NOT NULL,
			access_token  TEXT NOT NULL,
			refresh_token TEXT
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users (email)`,
		`ALTER TABLE users ADD COLUMN IF NOT EXISTS refresh_token TEXT`,
	}
	for _, stmt := range stmts {
		if _, err := s.DB.Exec(ctx, stmt); err != nil {
			return StorageError{Op: "ensure schema", Err: err}
		}
	}
	return nil
}

// Upsert writes both token fields in a single statement. The ON CONFLICT
// clause makes replays idempotent and keeps the write atomic per email.
func (s *PostgresStore) Upsert(ctx context.Context, email, accessToken, refreshToken string) error {
	var refresh *string
	if refreshToken != "" {
		refresh = &refreshToken
	}

	_, err := s.DB.Exec(ctx, `
		INSERT INTO users (email, access_token, refresh_token)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET
			access_token  = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token
	`, email, accessToken, refresh)

	if err != nil {
		log.Error().Err(err).Str("email", email).Msg("failed to upsert credential")
		return StorageError{Op: "upsert", Err: err}
	}
	return nil
}

// Lookup returns the stored credential for an identity.
func (s *PostgresStore) Lookup(ctx context.Context, email string) (Credential, error) {
	var cred Credential
	var refresh *string

	err := s.DB.QueryRow(ctx,
		`SELECT email, access_token, refresh_token FROM users WHERE email = $1`,
		email).Scan(&cred.Email, &cred.AccessToken, &refresh)

	if errors.Is(err, pgx.ErrNoRows) {
		return Credential{}, ErrNotFound
	}
	if err != nil {
		log.Error().Err(err).Str("email", email).Msg("failed to look up credential")
		return Credential{}, StorageError{Op: "lookup", Err: err}
	}

	if refresh != nil {
		cred.RefreshToken = *refresh
	}
	return cred, nil
}

// ListIdentities returns every known email, sorted by the database.
func (s *PostgresStore) ListIdentities(ctx context.Context) ([]string, error) {
	rows, err := s.DB.Query(ctx, `SELECT email FROM users ORDER BY email`)
	if err != nil {
		log.Error().Err(err).Msg("failed to list identities")
		return nil, StorageError{Op: "list", Err: err}
	}
	defer rows.Close()

	emails := make([]string, 0)
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, StorageError{Op: "list", Err: err}
		}
		emails = append(emails, email)
	}
	if err := rows.Err(); err != nil {
		return nil, StorageError{Op: "list", Err: err}
	}
	return emails, nil
}
