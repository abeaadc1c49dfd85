package models

import (
	"time"

	"github.com/google/uuid"
)

// ParentKind identifies what a comment is attached to.
type ParentKind string

const (
	ParentEvent  ParentKind = "event"
	ParentNotice ParentKind = "notice"
)

// Parent references the entity a comment belongs to.
type Parent struct {
	Kind ParentKind `json:"kind"`
	ID   uuid.UUID  `json:"id"`
}

// Comment is a comment on a notice or event. ParentCommentID is set for replies.
type Comment struct {
	ID              uuid.UUID  `json:"id"`
	ParentKind      ParentKind `json:"parent_kind"`
	ParentID        uuid.UUID  `json:"parent_id"`
	ParentCommentID *uuid.UUID `json:"parent_comment_id,omitempty"`
	Content         string     `json:"content"`
	CreatedBy       uuid.UUID  `json:"created_by"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Parent returns the entity reference of the comment.
func (c *Comment) Parent() Parent {
	return Parent{Kind: c.ParentKind, ID: c.ParentID}
}

// IsRoot reports whether the comment is a top-level comment.
func (c *Comment) IsRoot() bool {
	return c.ParentCommentID == nil
}

// CommentThread is a root comment with every reply beneath it, flattened to one level.
type CommentThread struct {
	Comment
	Replies []Comment `json:"replies"`
}
