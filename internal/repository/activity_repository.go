package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/Zarutan454/website-Template-sub013/internal/models"
)

type ActivityRepository struct {
	db *sql.DB
}

func NewActivityRepository(db *sql.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// startOfToday returns local wall-clock midnight. The day boundary is the
// client's local day, not the server timezone; a known source of skew that
// must not be silently changed to UTC.
func startOfToday(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// CountToday counts today's non-"mining" activity records for a user.
// This is the figure the daily cap is checked against.
func (r *ActivityRepository) CountToday(ctx context.Context, userID uint64) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM activities
		WHERE user_id = ?
		  AND activity_type != 'mining'
		  AND created_at >= ?
	`

	var count int
	err := r.db.QueryRowContext(ctx, query, userID, startOfToday(time.Now())).Scan(&count)
	return count, err
}

// CountTodayByType counts today's records of a specific activity type.
func (r *ActivityRepository) CountTodayByType(ctx context.Context, userID uint64, activityType string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM activities
		WHERE user_id = ?
		  AND activity_type = ?
		  AND created_at >= ?
	`

	var count int
	err := r.db.QueryRowContext(ctx, query, userID, activityType, startOfToday(time.Now())).Scan(&count)
	return count, err
}

// Create inserts a reward record for an activity.
func (r *ActivityRepository) Create(ctx context.Context, userID uint64, activityType string, points int32, tokens float64, reference string) (uint64, error) {
	query := `
		INSERT INTO activities (user_id, activity_type, points, tokens, reference, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, NOW(), NOW())
	`

	result, err := r.db.ExecContext(ctx, query, userID, activityType, points, tokens, reference)
	if err != nil {
		return 0, err
	}

	id, err := result.LastInsertId()
	return uint64(id), err
}

// FindByUserID retrieves recent activity records for a user.
func (r *ActivityRepository) FindByUserID(ctx context.Context, userID uint64, limit int32) ([]*models.ActivityRecord, error) {
	query := `
		SELECT id, user_id, activity_type, points, tokens, reference, created_at, updated_at
		FROM activities
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []*models.ActivityRecord{}
	for rows.Next() {
		record := &models.ActivityRecord{}
		if err := rows.Scan(
			&record.ID, &record.UserID, &record.ActivityType,
			&record.Points, &record.Tokens, &record.Reference,
			&record.CreatedAt, &record.UpdatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, nil
}
