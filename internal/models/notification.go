package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Notification types written by the fan-out.
const (
	NotificationOfficialEvent  = "new_official_event"
	NotificationCommunityEvent = "new_community_event"
)

// Notification is one recipient's copy of a broadcast.
type Notification struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Type        string     `json:"type"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	ReferenceID *uuid.UUID `json:"reference_id,omitempty"`
	IsRead      bool       `json:"is_read"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Target returns the path the notification links to, or "" when it has none.
func (n *Notification) Target() string {
	if n.ReferenceID == nil {
		return ""
	}
	switch {
	case strings.Contains(n.Type, "event"):
		return "/events/" + n.ReferenceID.String()
	case strings.Contains(n.Type, "notice"):
		return "/notices/" + n.ReferenceID.String()
	}
	return ""
}
