package repository

import (
	"context"
	"database/sql"

	"github.com/Zarutan454/website-Template-sub013/internal/models"
)

type MiningSessionRepository struct {
	db *sql.DB
}

func NewMiningSessionRepository(db *sql.DB) *MiningSessionRepository {
	return &MiningSessionRepository{db: db}
}

// GetByUserID retrieves the mining session row for a user.
// Returns nil, nil when the user has never mined.
func (r *MiningSessionRepository) GetByUserID(ctx context.Context, userID uint64) (*models.MiningSession, error) {
	session := &models.MiningSession{}

	query := `
		SELECT id, user_id, is_mining, accumulated_tokens, current_rate_per_minute,
		       last_heartbeat, created_at, updated_at
		FROM mining_sessions
		WHERE user_id = ?
	`

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&session.ID, &session.UserID, &session.IsMining,
		&session.AccumulatedTokens, &session.CurrentRatePerMinute,
		&session.LastHeartbeat, &session.CreatedAt, &session.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return session, err
}

// StartSession creates the session row on first start, or re-activates
// it on subsequent starts. One session per user.
func (r *MiningSessionRepository) StartSession(ctx context.Context, userID uint64) error {
	query := `
		INSERT INTO mining_sessions (user_id, is_mining, accumulated_tokens, current_rate_per_minute, last_heartbeat, created_at, updated_at)
		VALUES (?, 1, 0, 0, NOW(), NOW(), NOW())
		ON DUPLICATE KEY UPDATE is_mining = 1, last_heartbeat = NOW(), updated_at = NOW()
	`

	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}

// StopSession marks the session inactive. Accumulated tokens stay as the
// server last confirmed them.
func (r *MiningSessionRepository) StopSession(ctx context.Context, userID uint64) error {
	query := `
		UPDATE mining_sessions
		SET is_mining = 0, updated_at = NOW()
		WHERE user_id = ?
	`

	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}
