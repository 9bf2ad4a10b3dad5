package revocation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// PostgresSchema creates the revocation table.
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS token_revocations (
	jti        TEXT PRIMARY KEY,
	expires_at TIMESTAMPTZ NOT NULL
);
`

// PostgresTRL persists revoked token JTIs in PostgreSQL.
type PostgresTRL struct {
	db    *sql.DB
	clock func() time.Time
}

// PostgresTRLOption configures a PostgresTRL instance.
type PostgresTRLOption func(*PostgresTRL)

// WithPostgresClock sets the clock function for testability.
func WithPostgresClock(clock func() time.Time) PostgresTRLOption {
	return func(trl *PostgresTRL) {
		if clock != nil {
			trl.clock = clock
		}
	}
}

// NewPostgresTRL constructs a PostgreSQL-backed token revocation list.
func NewPostgresTRL(db *sql.DB, opts ...PostgresTRLOption) *PostgresTRL {
	trl := &PostgresTRL{
		db:    db,
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(trl)
	}
	return trl
}

// RevokeTokens inserts every JTI in one statement, extending the expiry of
// entries already present.
func (t *PostgresTRL) RevokeTokens(ctx context.Context, jtis []string, ttl time.Duration) error {
	if err := validateTTL(ttl); err != nil {
		return err
	}
	jtis = nonEmpty(jtis)
	if len(jtis) == 0 {
		return nil
	}

	query := `
		INSERT INTO token_revocations (jti, expires_at)
		SELECT unnest($1::text[]), $2
		ON CONFLICT (jti) DO UPDATE SET
			expires_at = EXCLUDED.expires_at
	`
	_, err := t.db.ExecContext(ctx, query, pq.Array(jtis), t.clock().Add(ttl))
	if err != nil {
		return fmt.Errorf("revoke tokens: %w", err)
	}
	return nil
}

// IsTokenRevoked checks if a token is in the revocation list.
func (t *PostgresTRL) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var expiresAt time.Time
	err := t.db.QueryRowContext(ctx, `SELECT expires_at FROM token_revocations WHERE jti = $1`, jti).Scan(&expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check token revocation: %w", err)
	}
	return t.clock().Before(expiresAt), nil
}

// PurgeExpired deletes entries whose expiry has passed.
func (t *PostgresTRL) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := t.db.ExecContext(ctx, `DELETE FROM token_revocations WHERE expires_at <= $1`, t.clock())
	if err != nil {
		return 0, fmt.Errorf("purge token revocations: %w", err)
	}
	return res.RowsAffected()
}
