package events

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gathering-hub/backend/internal/apperr"
	"github.com/gathering-hub/backend/internal/models"
	"github.com/gathering-hub/backend/pkg/database"
)

// Store is the event and attendance persistence the service needs.
type Store interface {
	CreateEvent(ctx context.Context, e *models.Event) error
	GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error)
	// ListEvents returns every event ordered by start time ascending.
	ListEvents(ctx context.Context) ([]models.Event, error)
	// ListPendingEvents returns events awaiting moderation, newest submission first.
	ListPendingEvents(ctx context.Context) ([]models.Event, error)
	// TransitionEvent moves an event from one approval status to another. It fails with a
	// validation error when the event is no longer in from.
	TransitionEvent(ctx context.Context, id uuid.UUID, from, to models.ApprovalStatus) (*models.Event, error)
	DeleteEvent(ctx context.Context, id uuid.UUID) error
	AddEventImage(ctx context.Context, id uuid.UUID, url string) (*models.Event, error)
	RemoveEventImage(ctx context.Context, id uuid.UUID, url string) (*models.Event, error)

	// AddAttendee inserts the attendance row; an existing row is left untouched.
	AddAttendee(ctx context.Context, eventID, userID uuid.UUID) error
	// AddAttendeeWithinCapacity checks capacity and inserts in one atomic step.
	AddAttendeeWithinCapacity(ctx context.Context, eventID, userID uuid.UUID) error
	RemoveAttendee(ctx context.Context, eventID, userID uuid.UUID) error
	CountAttendees(ctx context.Context, eventID uuid.UUID) (int, error)
	IsAttending(ctx context.Context, eventID, userID uuid.UUID) (bool, error)
	ListAttendees(ctx context.Context, eventID uuid.UUID) ([]models.Attendance, error)
}

// Repository handles event persistence in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an event repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const eventColumns = `id, title, description, date, location, image_url, image_urls, max_attendees,
	is_official, approval_status, created_by, created_at, updated_at`

func scanEvent(row pgx.Row) (*models.Event, error) {
	var e models.Event
	var status string
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Date, &e.Location, &e.ImageURL, &e.ImageURLs,
		&e.MaxAttendees, &e.IsOfficial, &status, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	e.ApprovalStatus = models.ApprovalStatus(status)
	if e.ImageURLs == nil {
		e.ImageURLs = []string{}
	}
	return &e, nil
}

func (r *Repository) queryEvents(ctx context.Context, q string, args ...any) ([]models.Event, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, apperr.Backend("list events", err)
	}
	defer rows.Close()
	list := []models.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, apperr.Backend("scan event", err)
		}
		list = append(list, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Backend("list events", err)
	}
	return list, nil
}

// CreateEvent inserts e and fills its generated fields.
func (r *Repository) CreateEvent(ctx context.Context, e *models.Event) error {
	if e.ImageURLs == nil {
		e.ImageURLs = []string{}
	}
	const q = `INSERT INTO events (title, description, date, location, image_url, image_urls, max_attendees, is_official, approval_status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, e.Title, e.Description, e.Date, e.Location, e.ImageURL, e.ImageURLs,
		e.MaxAttendees, e.IsOfficial, string(e.ApprovalStatus), e.CreatedBy).
		Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return apperr.Backend("create event", err)
	}
	return nil
}

// GetEvent returns an event by ID.
func (r *Repository) GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	e, err := scanEvent(r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if err != nil {
		return nil, database.MapErr(err, "get event", "event")
	}
	return e, nil
}

// ListEvents returns all events by start time.
func (r *Repository) ListEvents(ctx context.Context) ([]models.Event, error) {
	return r.queryEvents(ctx, `SELECT `+eventColumns+` FROM events ORDER BY date ASC`)
}

// ListPendingEvents returns the moderation queue.
func (r *Repository) ListPendingEvents(ctx context.Context) ([]models.Event, error) {
	return r.queryEvents(ctx, `SELECT `+eventColumns+` FROM events WHERE approval_status = 'pending' ORDER BY created_at DESC`)
}

// TransitionEvent performs a conditional status update.
func (r *Repository) TransitionEvent(ctx context.Context, id uuid.UUID, from, to models.ApprovalStatus) (*models.Event, error) {
	q := `UPDATE events SET approval_status = $3, updated_at = NOW()
		WHERE id = $1 AND approval_status = $2 RETURNING ` + eventColumns
	e, err := scanEvent(r.pool.QueryRow(ctx, q, id, string(from), string(to)))
	if errors.Is(err, pgx.ErrNoRows) {
		cur, gerr := r.GetEvent(ctx, id)
		if gerr != nil {
			return nil, gerr
		}
		return nil, apperr.Validation("event is already %s", cur.ApprovalStatus)
	}
	if err != nil {
		return nil, apperr.Backend("update event status", err)
	}
	return e, nil
}

// DeleteEvent removes an event. Attendance and comments go with it via ON DELETE CASCADE.
func (r *Repository) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return apperr.Backend("delete event", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("event")
	}
	return nil
}

// AddEventImage appends url to the event gallery unless already present.
func (r *Repository) AddEventImage(ctx context.Context, id uuid.UUID, url string) (*models.Event, error) {
	q := `UPDATE events SET image_urls = CASE WHEN $2 = ANY(image_urls) THEN image_urls ELSE array_append(image_urls, $2) END,
		updated_at = NOW() WHERE id = $1 RETURNING ` + eventColumns
	e, err := scanEvent(r.pool.QueryRow(ctx, q, id, url))
	if err != nil {
		return nil, database.MapErr(err, "add event image", "event")
	}
	return e, nil
}

// RemoveEventImage removes url from the event gallery.
func (r *Repository) RemoveEventImage(ctx context.Context, id uuid.UUID, url string) (*models.Event, error) {
	q := `UPDATE events SET image_urls = array_remove(image_urls, $2), updated_at = NOW()
		WHERE id = $1 RETURNING ` + eventColumns
	e, err := scanEvent(r.pool.QueryRow(ctx, q, id, url))
	if err != nil {
		return nil, database.MapErr(err, "remove event image", "event")
	}
	return e, nil
}

// AddAttendee upserts the (event, user) attendance row.
func (r *Repository) AddAttendee(ctx context.Context, eventID, userID uuid.UUID) error {
	const q = `INSERT INTO event_attendees (event_id, user_id, status) VALUES ($1, $2, $3)
		ON CONFLICT (event_id, user_id) DO NOTHING`
	if _, err := r.pool.Exec(ctx, q, eventID, userID, models.AttendanceGoing); err != nil {
		return apperr.Backend("add attendee", err)
	}
	return nil
}

// AddAttendeeWithinCapacity locks the event row so concurrent RSVPs serialize on the count.
func (r *Repository) AddAttendeeWithinCapacity(ctx context.Context, eventID, userID uuid.UUID) error {
	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var max *int
		err := tx.QueryRow(ctx, `SELECT max_attendees FROM events WHERE id = $1 FOR UPDATE`, eventID).Scan(&max)
		if err != nil {
			return database.MapErr(err, "lock event", "event")
		}
		var attending bool
		err = tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM event_attendees WHERE event_id = $1 AND user_id = $2)`, eventID, userID).Scan(&attending)
		if err != nil {
			return apperr.Backend("check attendance", err)
		}
		if attending {
			return nil
		}
		if max != nil {
			var n int
			if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM event_attendees WHERE event_id = $1`, eventID).Scan(&n); err != nil {
				return apperr.Backend("count attendees", err)
			}
			if n >= *max {
				return apperr.Capacity("event is full")
			}
		}
		_, err = tx.Exec(ctx, `INSERT INTO event_attendees (event_id, user_id, status) VALUES ($1, $2, $3)`,
			eventID, userID, models.AttendanceGoing)
		if err != nil {
			return apperr.Backend("add attendee", err)
		}
		return nil
	})
	if err != nil {
		return apperr.Backend("add attendee", err)
	}
	return nil
}

// RemoveAttendee deletes the attendance row if any.
func (r *Repository) RemoveAttendee(ctx context.Context, eventID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM event_attendees WHERE event_id = $1 AND user_id = $2`, eventID, userID)
	if err != nil {
		return apperr.Backend("remove attendee", err)
	}
	return nil
}

// CountAttendees returns the number of attendance rows for an event.
func (r *Repository) CountAttendees(ctx context.Context, eventID uuid.UUID) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM event_attendees WHERE event_id = $1`, eventID).Scan(&n); err != nil {
		return 0, apperr.Backend("count attendees", err)
	}
	return n, nil
}

// IsAttending reports whether the user has an attendance row for the event.
func (r *Repository) IsAttending(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	var ok bool
	const q = `SELECT EXISTS (SELECT 1 FROM event_attendees WHERE event_id = $1 AND user_id = $2)`
	if err := r.pool.QueryRow(ctx, q, eventID, userID).Scan(&ok); err != nil {
		return false, apperr.Backend("check attendance", err)
	}
	return ok, nil
}

// ListAttendees returns attendance rows in RSVP order.
func (r *Repository) ListAttendees(ctx context.Context, eventID uuid.UUID) ([]models.Attendance, error) {
	rows, err := r.pool.Query(ctx, `SELECT event_id, user_id, status, created_at FROM event_attendees
		WHERE event_id = $1 ORDER BY created_at`, eventID)
	if err != nil {
		return nil, apperr.Backend("list attendees", err)
	}
	list, err := pgx.CollectRows(rows, pgx.RowToStructByPos[models.Attendance])
	if err != nil {
		return nil, apperr.Backend("list attendees", err)
	}
	return list, nil
}
