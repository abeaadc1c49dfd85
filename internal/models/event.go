package models

import (
	"time"

	"github.com/google/uuid"
)

// ApprovalStatus is the moderation state of an event.
type ApprovalStatus string

const (
	StatusPending  ApprovalStatus = "pending"
	StatusApproved ApprovalStatus = "approved"
	StatusRejected ApprovalStatus = "rejected"
)

// Event is a community or official event.
type Event struct {
	ID             uuid.UUID      `json:"id"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	Date           time.Time      `json:"date"`
	Location       string         `json:"location"`
	ImageURL       string         `json:"image_url,omitempty"`
	ImageURLs      []string       `json:"image_urls"`
	MaxAttendees   *int           `json:"max_attendees,omitempty"`
	IsOfficial     bool           `json:"is_official"`
	ApprovalStatus ApprovalStatus `json:"approval_status"`
	CreatedBy      uuid.UUID      `json:"created_by"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Visible reports whether ordinary members may see the event.
func (e *Event) Visible() bool {
	return e.IsOfficial || e.ApprovalStatus == StatusApproved
}

// AtCapacity reports whether attendees has reached the event's limit.
func (e *Event) AtCapacity(attendees int) bool {
	return e.MaxAttendees != nil && attendees >= *e.MaxAttendees
}

// EventDraft holds the fields a member submits when creating an event.
type EventDraft struct {
	Title        string     `json:"title" validate:"required"`
	Description  string     `json:"description"`
	Date         *time.Time `json:"date" validate:"required"`
	Location     string     `json:"location" validate:"required"`
	ImageURL     string     `json:"image_url" validate:"omitempty,url"`
	MaxAttendees *int       `json:"max_attendees" validate:"omitempty,gt=0"`
}

// EventDetail is an event with its attendance summary as seen by one caller.
type EventDetail struct {
	Event
	CreatorName   string `json:"creator_name"`
	AttendeeCount int    `json:"attendee_count"`
	IsAttending   bool   `json:"is_attending"`
}
