package repositories

import (
	"database/sql"
	"fmt"
	"time"
)

// CooldownRepository is the ephemeral guard behind resend throttling. The
// guard lives in its own table (not on the user row) so it expires on its own
// schedule and stays correct across server instances.
type CooldownRepository interface {
	// Acquire atomically arms the guard for key unless an unexpired guard is
	// already set. Returns false while the previous guard is still active.
	Acquire(key string, ttl time.Duration) (bool, error)
}

type cooldownRepository struct {
	DB *sql.DB
}

func NewCooldownRepository(db *sql.DB) CooldownRepository {
	return &cooldownRepository{DB: db}
}

func (r *cooldownRepository) Acquire(key string, ttl time.Duration) (bool, error) {
	// single-statement set-if-expired, so concurrent resends cannot both win
	const q = `
		INSERT INTO resend_cooldowns (key, expires_at)
		VALUES ($1, NOW() + $2 * INTERVAL '1 second')
		ON CONFLICT (key) DO UPDATE
		SET expires_at = EXCLUDED.expires_at
		WHERE resend_cooldowns.expires_at <= NOW()
	`
	res, err := r.DB.Exec(q, key, int64(ttl.Seconds()))
	if err != nil {
		return false, fmt.Errorf("cooldown acquire: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
