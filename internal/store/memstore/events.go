package memstore

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/gathering-hub/backend/internal/apperr"
	"github.com/gathering-hub/backend/internal/models"
)

func copyEvent(e *models.Event) *models.Event {
	cp := *e
	cp.ImageURLs = append([]string{}, e.ImageURLs...)
	if e.MaxAttendees != nil {
		n := *e.MaxAttendees
		cp.MaxAttendees = &n
	}
	return &cp
}

// CreateEvent inserts e and fills its generated fields.
func (s *Store) CreateEvent(_ context.Context, e *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[e.CreatedBy]; !ok {
		return apperr.Backend("create event", errForeignKey("events.created_by"))
	}
	if e.IsOfficial && e.ApprovalStatus != models.StatusApproved {
		return apperr.Backend("create event", errCheck("official events must be approved"))
	}
	e.ID = uuid.New()
	e.CreatedAt = s.now()
	e.UpdatedAt = e.CreatedAt
	if e.ImageURLs == nil {
		e.ImageURLs = []string{}
	}
	s.events[e.ID] = copyEvent(e)
	return nil
}

// GetEvent returns an event by ID.
func (s *Store) GetEvent(_ context.Context, id uuid.UUID) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return nil, apperr.NotFound("event")
	}
	return copyEvent(e), nil
}

func (s *Store) sortedEvents(keep func(*models.Event) bool, less func(a, b *models.Event) bool) []models.Event {
	list := []models.Event{}
	for _, e := range s.events {
		if keep(e) {
			list = append(list, *copyEvent(e))
		}
	}
	sort.Slice(list, func(i, j int) bool { return less(&list[i], &list[j]) })
	return list
}

// ListEvents returns every event by start time.
func (s *Store) ListEvents(_ context.Context) ([]models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedEvents(
		func(*models.Event) bool { return true },
		func(a, b *models.Event) bool {
			if a.Date.Equal(b.Date) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.Date.Before(b.Date)
		}), nil
}

// ListPendingEvents returns pending events, newest submission first.
func (s *Store) ListPendingEvents(_ context.Context) ([]models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedEvents(
		func(e *models.Event) bool { return e.ApprovalStatus == models.StatusPending },
		func(a, b *models.Event) bool { return a.CreatedAt.After(b.CreatedAt) }), nil
}

// TransitionEvent performs a conditional status update.
func (s *Store) TransitionEvent(_ context.Context, id uuid.UUID, from, to models.ApprovalStatus) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return nil, apperr.NotFound("event")
	}
	if e.ApprovalStatus != from {
		return nil, apperr.Validation("event is already %s", e.ApprovalStatus)
	}
	e.ApprovalStatus = to
	e.UpdatedAt = s.now()
	return copyEvent(e), nil
}

// DeleteEvent removes an event with its attendance and comments.
func (s *Store) DeleteEvent(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return apperr.NotFound("event")
	}
	delete(s.events, id)
	delete(s.attendees, id)
	s.deleteCommentsOf(models.Parent{Kind: models.ParentEvent, ID: id})
	return nil
}

// AddEventImage appends url to the gallery unless present.
func (s *Store) AddEventImage(_ context.Context, id uuid.UUID, url string) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return nil, apperr.NotFound("event")
	}
	for _, u := range e.ImageURLs {
		if u == url {
			return copyEvent(e), nil
		}
	}
	e.ImageURLs = append(e.ImageURLs, url)
	e.UpdatedAt = s.now()
	return copyEvent(e), nil
}

// RemoveEventImage removes url from the gallery.
func (s *Store) RemoveEventImage(_ context.Context, id uuid.UUID, url string) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return nil, apperr.NotFound("event")
	}
	kept := e.ImageURLs[:0]
	for _, u := range e.ImageURLs {
		if u != url {
			kept = append(kept, u)
		}
	}
	e.ImageURLs = kept
	e.UpdatedAt = s.now()
	return copyEvent(e), nil
}

func (s *Store) addAttendeeLocked(eventID, userID uuid.UUID) error {
	if _, ok := s.events[eventID]; !ok {
		return apperr.Backend("add attendee", errForeignKey("event_attendees.event_id"))
	}
	m := s.attendees[eventID]
	if m == nil {
		m = make(map[uuid.UUID]models.Attendance)
		s.attendees[eventID] = m
	}
	if _, ok := m[userID]; ok {
		return nil
	}
	m[userID] = models.Attendance{EventID: eventID, UserID: userID, Status: models.AttendanceGoing, CreatedAt: s.now()}
	return nil
}

// AddAttendee upserts the attendance row.
func (s *Store) AddAttendee(_ context.Context, eventID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addAttendeeLocked(eventID, userID)
}

// AddAttendeeWithinCapacity checks and inserts under the store lock.
func (s *Store) AddAttendeeWithinCapacity(_ context.Context, eventID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventID]
	if !ok {
		return apperr.NotFound("event")
	}
	m := s.attendees[eventID]
	if _, ok := m[userID]; ok {
		return nil
	}
	if e.AtCapacity(len(m)) {
		return apperr.Capacity("event is full")
	}
	return s.addAttendeeLocked(eventID, userID)
}

// RemoveAttendee deletes the attendance row if any.
func (s *Store) RemoveAttendee(_ context.Context, eventID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attendees[eventID], userID)
	return nil
}

// CountAttendees returns the attendance count of an event.
func (s *Store) CountAttendees(_ context.Context, eventID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.attendees[eventID]), nil
}

// IsAttending reports whether the pair has an attendance row.
func (s *Store) IsAttending(_ context.Context, eventID, userID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.attendees[eventID][userID]
	return ok, nil
}

// ListAttendees returns attendance rows in RSVP order.
func (s *Store) ListAttendees(_ context.Context, eventID uuid.UUID) ([]models.Attendance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := []models.Attendance{}
	for _, a := range s.attendees[eventID] {
		list = append(list, a)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list, nil
}
