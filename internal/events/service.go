// Package events manages event creation, moderation, visibility and attendance.
package events

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gathering-hub/backend/internal/apperr"
	"github.com/gathering-hub/backend/internal/models"
	"github.com/gathering-hub/backend/internal/session"
	"github.com/gathering-hub/backend/pkg/utils"
)

// WarnNotifyFailed is returned in Result.Warnings when the fan-out could not be triggered.
const WarnNotifyFailed = "event saved, but members could not be notified"

// Notifier triggers the notification fan-out for a newly created or approved event.
// Implementations must not block on the fan-out itself.
type Notifier interface {
	EventPublished(ctx context.Context, e models.Event) error
}

// Directory resolves creator display names.
type Directory interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Options are the workflow switches read from config.
type Options struct {
	CreatorSeesPending bool
	StrictCapacity     bool
}

// Result is a saved event plus any soft failures of its side effects.
type Result struct {
	Event    *models.Event `json:"event"`
	Warnings []string      `json:"-"`
}

// Listing partitions events for one viewer. Pending is only filled for moderators
// (and creators when CreatorSeesPending is on).
type Listing struct {
	Events  []models.Event `json:"events"`
	Pending []models.Event `json:"pending,omitempty"`
}

// Service implements the event lifecycle.
type Service struct {
	store    Store
	users    Directory
	notifier Notifier
	opts     Options
	logger   *zap.Logger
}

// NewService creates an event service. notifier may be nil, in which case no fan-out happens.
func NewService(store Store, users Directory, notifier Notifier, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, users: users, notifier: notifier, opts: opts, logger: logger}
}

// Create saves a new event. Admin submissions are official and approved immediately;
// member submissions wait in pending.
func (s *Service) Create(ctx context.Context, caller session.Caller, draft models.EventDraft) (*Result, error) {
	draft.Title = strings.TrimSpace(draft.Title)
	draft.Location = strings.TrimSpace(draft.Location)
	if err := utils.Validate(draft); err != nil {
		return nil, err
	}
	e := &models.Event{
		Title:          draft.Title,
		Description:    strings.TrimSpace(draft.Description),
		Date:           *draft.Date,
		Location:       draft.Location,
		ImageURL:       draft.ImageURL,
		ImageURLs:      []string{},
		MaxAttendees:   draft.MaxAttendees,
		IsOfficial:     caller.IsAdmin,
		ApprovalStatus: models.StatusPending,
		CreatedBy:      caller.ID,
	}
	if e.IsOfficial {
		e.ApprovalStatus = models.StatusApproved
	}
	if err := s.store.CreateEvent(ctx, e); err != nil {
		return nil, err
	}
	s.logger.Info("event created",
		zap.String("event_id", e.ID.String()),
		zap.Bool("official", e.IsOfficial),
		zap.String("created_by", caller.ID.String()))
	return &Result{Event: e, Warnings: s.publish(ctx, e)}, nil
}

func (s *Service) publish(ctx context.Context, e *models.Event) []string {
	if s.notifier == nil {
		return nil
	}
	if err := s.notifier.EventPublished(ctx, *e); err != nil {
		s.logger.Warn("notify event failed", zap.Error(err), zap.String("event_id", e.ID.String()))
		return []string{WarnNotifyFailed}
	}
	return nil
}

func (s *Service) canView(caller session.Caller, e *models.Event) bool {
	if e.Visible() || caller.IsAdmin {
		return true
	}
	return s.opts.CreatorSeesPending && e.ApprovalStatus == models.StatusPending && caller.Owns(e.CreatedBy)
}

// List returns the events the caller may see, ordered by start time.
func (s *Service) List(ctx context.Context, caller session.Caller) (*Listing, error) {
	all, err := s.store.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	out := &Listing{Events: []models.Event{}}
	for i := range all {
		e := &all[i]
		switch {
		case e.Visible():
			out.Events = append(out.Events, *e)
		case e.ApprovalStatus != models.StatusPending:
			// rejected events are hidden from everyone
		case caller.IsAdmin, s.opts.CreatorSeesPending && caller.Owns(e.CreatedBy):
			out.Pending = append(out.Pending, *e)
		}
	}
	return out, nil
}

// Get returns one event with its attendance summary. Events the caller may not see are reported as not found.
func (s *Service) Get(ctx context.Context, caller session.Caller, id uuid.UUID) (*models.EventDetail, error) {
	e, err := s.visible(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	n, err := s.store.CountAttendees(ctx, id)
	if err != nil {
		return nil, err
	}
	attending, err := s.store.IsAttending(ctx, id, caller.ID)
	if err != nil {
		return nil, err
	}
	d := &models.EventDetail{Event: *e, AttendeeCount: n, IsAttending: attending, CreatorName: "Anonymous"}
	if u, err := s.users.GetUserByID(ctx, e.CreatedBy); err == nil {
		d.CreatorName = u.DisplayName()
	} else if !apperr.IsNotFound(err) {
		s.logger.Warn("resolve event creator failed", zap.Error(err), zap.String("event_id", id.String()))
	}
	return d, nil
}

// CheckVisible returns NotFound when the event does not exist or caller may not see it.
func (s *Service) CheckVisible(ctx context.Context, caller session.Caller, id uuid.UUID) error {
	_, err := s.visible(ctx, caller, id)
	return err
}

func (s *Service) visible(ctx context.Context, caller session.Caller, id uuid.UUID) (*models.Event, error) {
	e, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.canView(caller, e) {
		return nil, apperr.NotFound("event")
	}
	return e, nil
}

// Pending returns the moderation queue, newest submission first. Admin only.
func (s *Service) Pending(ctx context.Context, caller session.Caller) ([]models.Event, error) {
	if !caller.IsAdmin {
		return nil, apperr.Authorization("only admins can review pending events")
	}
	return s.store.ListPendingEvents(ctx)
}

// Approve publishes a pending event and triggers the fan-out. Admin only.
func (s *Service) Approve(ctx context.Context, caller session.Caller, id uuid.UUID) (*Result, error) {
	if !caller.IsAdmin {
		return nil, apperr.Authorization("only admins can approve events")
	}
	e, err := s.store.TransitionEvent(ctx, id, models.StatusPending, models.StatusApproved)
	if err != nil {
		return nil, err
	}
	s.logger.Info("event approved", zap.String("event_id", id.String()), zap.String("admin_id", caller.ID.String()))
	return &Result{Event: e, Warnings: s.publish(ctx, e)}, nil
}

// Reject closes a pending event. Admin only.
func (s *Service) Reject(ctx context.Context, caller session.Caller, id uuid.UUID) (*models.Event, error) {
	if !caller.IsAdmin {
		return nil, apperr.Authorization("only admins can reject events")
	}
	e, err := s.store.TransitionEvent(ctx, id, models.StatusPending, models.StatusRejected)
	if err != nil {
		return nil, err
	}
	s.logger.Info("event rejected", zap.String("event_id", id.String()), zap.String("admin_id", caller.ID.String()))
	return e, nil
}

// Delete removes an event with its attendance and comments. Creator or admin.
func (s *Service) Delete(ctx context.Context, caller session.Caller, id uuid.UUID) error {
	e, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return err
	}
	if !caller.OwnsOrAdmin(e.CreatedBy) {
		return apperr.Authorization("only the creator or an admin can delete this event")
	}
	return s.store.DeleteEvent(ctx, id)
}

// Attend records the caller as going. Attending twice is a no-op.
func (s *Service) Attend(ctx context.Context, caller session.Caller, id uuid.UUID) error {
	e, err := s.visible(ctx, caller, id)
	if err != nil {
		return err
	}
	if s.opts.StrictCapacity {
		return s.store.AddAttendeeWithinCapacity(ctx, id, caller.ID)
	}
	attending, err := s.store.IsAttending(ctx, id, caller.ID)
	if err != nil || attending {
		return err
	}
	if e.MaxAttendees != nil {
		n, err := s.store.CountAttendees(ctx, id)
		if err != nil {
			return err
		}
		if e.AtCapacity(n) {
			return apperr.Capacity("event is full")
		}
	}
	return s.store.AddAttendee(ctx, id, caller.ID)
}

// CancelAttendance removes the caller's attendance. No-op when not attending.
func (s *Service) CancelAttendance(ctx context.Context, caller session.Caller, id uuid.UUID) error {
	return s.store.RemoveAttendee(ctx, id, caller.ID)
}

// Attendees lists who is going.
func (s *Service) Attendees(ctx context.Context, caller session.Caller, id uuid.UUID) ([]models.Attendance, error) {
	if _, err := s.visible(ctx, caller, id); err != nil {
		return nil, err
	}
	return s.store.ListAttendees(ctx, id)
}

// AddImage adds an uploaded image URL to the event gallery. Creator or admin.
func (s *Service) AddImage(ctx context.Context, caller session.Caller, id uuid.UUID, url string) (*models.Event, error) {
	if err := s.authorizeGallery(ctx, caller, id, url); err != nil {
		return nil, err
	}
	return s.store.AddEventImage(ctx, id, url)
}

// RemoveImage drops a URL from the event gallery. Creator or admin.
func (s *Service) RemoveImage(ctx context.Context, caller session.Caller, id uuid.UUID, url string) (*models.Event, error) {
	if err := s.authorizeGallery(ctx, caller, id, url); err != nil {
		return nil, err
	}
	return s.store.RemoveEventImage(ctx, id, url)
}

func (s *Service) authorizeGallery(ctx context.Context, caller session.Caller, id uuid.UUID, url string) error {
	if err := utils.ValidateVar("image_url", url, "required,url"); err != nil {
		return err
	}
	e, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return err
	}
	if !caller.OwnsOrAdmin(e.CreatedBy) {
		return apperr.Authorization("only the host or an admin can edit the gallery")
	}
	return nil
}
