package models

import (
	"time"

	"github.com/google/uuid"
)

// AttendanceGoing is the only status the RSVP flow writes.
const AttendanceGoing = "going"

// Attendance marks an account as attending an event. Unique per (event, user).
type Attendance struct {
	EventID   uuid.UUID `json:"event_id"`
	UserID    uuid.UUID `json:"user_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
