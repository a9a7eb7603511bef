package models

import (
	"time"

	"github.com/google/uuid"
)

// Comment threads are exactly two levels deep: a nil ParentID marks a root
// comment, a non-nil ParentID must reference a root on the same post.
type Comment struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	PostID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"post_id"`
	ParentID  *uuid.UUID `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	AuthorID  uuid.UUID  `gorm:"type:uuid;not null" json:"author_id"`
	Body      string     `gorm:"not null" json:"body"`
	Score     int        `gorm:"default:0" json:"score"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type CreateCommentRequest struct {
	Body     string     `json:"body" binding:"required"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
}
