package models

import (
	"time"

	"github.com/google/uuid"
)

type TargetKind string

const (
	TargetPost    TargetKind = "post"
	TargetComment TargetKind = "comment"
)

// Vote - at most one row per (voter, target) pair; the target's score column
// must always equal the sum of its vote values.
type Vote struct {
	VoterID    uuid.UUID  `gorm:"type:uuid;primaryKey" json:"voter_id"`
	TargetID   uuid.UUID  `gorm:"type:uuid;primaryKey" json:"target_id"`
	TargetKind TargetKind `gorm:"primaryKey" json:"target_kind"`
	Value      int        `gorm:"not null" json:"value"` // +1 or -1
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type VoteRequest struct {
	Value int `json:"value" binding:"required,oneof=-1 1"`
}
