// Package domain defines the core persistence models for the application.
// This file holds the replay-detection record backing the Idempotency-Key
// middleware on relationship mutations.
package domain

import "time"

// Idempotency records a previously processed mutation, keyed by
// (user_id, key). Relationship edges carry no uniqueness constraint of their
// own, so replayed POSTs (client or proxy retries) are deduplicated here
// instead of inserting duplicate edges.
type Idempotency struct {
	ID        string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	UserID    string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_idem_user_key,priority:1"`
	Key       string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_idem_user_key,priority:2"`
	Status    int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
