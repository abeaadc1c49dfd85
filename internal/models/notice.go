package models

import (
	"time"

	"github.com/google/uuid"
)

// Notice is a bulletin-board post.
type Notice struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedBy   uuid.UUID `json:"created_by"`
	IsPinned    bool      `json:"is_pinned"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NoticeDraft holds the fields submitted when posting a notice.
type NoticeDraft struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
}

// NoticeDetail is a notice with its comment threads.
type NoticeDetail struct {
	Notice
	CreatorName string          `json:"creator_name"`
	Comments    []CommentThread `json:"comments"`
}
