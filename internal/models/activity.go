package models

import "time"

// ActivityRecord represents the activities table. Non-"mining" records
// count toward the daily activity cap.
type ActivityRecord struct {
	ID           uint64    `json:"id" db:"id"`
	UserID       uint64    `json:"user_id" db:"user_id"`
	ActivityType string    `json:"activity_type" db:"activity_type"` // post, comment, like, share, invite, mining
	Points       int32     `json:"points" db:"points"`
	Tokens       float64   `json:"tokens" db:"tokens"`
	Reference    string    `json:"reference" db:"reference"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// RecordActivityRequest is the payload for the activity endpoint.
type RecordActivityRequest struct {
	ActivityType string `json:"activity_type" validate:"required,oneof=post comment like share invite"`
}
