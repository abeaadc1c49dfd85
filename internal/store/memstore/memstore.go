// Package memstore is an in-memory record store implementing every repository interface.
// Deletes cascade exactly like the foreign keys in the SQL schema. It backs package tests
// and STORE_DRIVER=memory for local development.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gathering-hub/backend/internal/apperr"
	"github.com/gathering-hub/backend/internal/models"
)

// Store holds all records behind one mutex.
type Store struct {
	mu            sync.Mutex
	last          time.Time
	users         map[uuid.UUID]*models.User
	emails        map[string]uuid.UUID
	admins        map[uuid.UUID]bool
	events        map[uuid.UUID]*models.Event
	attendees     map[uuid.UUID]map[uuid.UUID]models.Attendance
	notices       map[uuid.UUID]*models.Notice
	comments      map[uuid.UUID]*models.Comment
	notifications map[uuid.UUID]*models.Notification
}

// New returns an empty store.
func New() *Store {
	return &Store{
		users:         make(map[uuid.UUID]*models.User),
		emails:        make(map[string]uuid.UUID),
		admins:        make(map[uuid.UUID]bool),
		events:        make(map[uuid.UUID]*models.Event),
		attendees:     make(map[uuid.UUID]map[uuid.UUID]models.Attendance),
		notices:       make(map[uuid.UUID]*models.Notice),
		comments:      make(map[uuid.UUID]*models.Comment),
		notifications: make(map[uuid.UUID]*models.Notification),
	}
}

// now returns a strictly increasing timestamp so creation order is total. Callers hold mu.
func (s *Store) now() time.Time {
	t := time.Now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

// ---- accounts ----

func (s *Store) withRole(u *models.User) *models.User {
	cp := *u
	cp.Role = models.RoleMember
	if s.admins[u.ID] {
		cp.Role = models.RoleAdmin
	}
	return &cp
}

// CreateUser inserts a new account.
func (s *Store) CreateUser(_ context.Context, email, passwordHash string, fullName *string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(email)
	if _, ok := s.emails[key]; ok {
		return nil, apperr.Validation("email already registered")
	}
	now := s.now()
	u := &models.User{ID: uuid.New(), Email: email, Password: passwordHash, FullName: fullName, CreatedAt: now, UpdatedAt: now}
	s.users[u.ID] = u
	s.emails[key] = u.ID
	return s.withRole(u), nil
}

// GetUserByID returns an account by ID.
func (s *Store) GetUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperr.NotFound("user")
	}
	return s.withRole(u), nil
}

// GetUserByEmail returns an account by email.
func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.emails[strings.ToLower(email)]
	if !ok {
		return nil, apperr.NotFound("user")
	}
	return s.withRole(s.users[id]), nil
}

// ListUsers returns all accounts ordered by name, then email.
func (s *Store) ListUsers(_ context.Context) ([]models.UserPublic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]models.UserPublic, 0, len(s.users))
	for _, u := range s.users {
		list = append(list, s.withRole(u).ToPublic())
	}
	sort.Slice(list, func(i, j int) bool {
		ni, nj := list[i].FullName, list[j].FullName
		switch {
		case ni != nil && nj != nil && *ni != *nj:
			return *ni < *nj
		case ni != nil && nj == nil:
			return true
		case ni == nil && nj != nil:
			return false
		}
		return list[i].Email < list[j].Email
	})
	return list, nil
}

// IsAdmin reports whether the account holds the admin role.
func (s *Store) IsAdmin(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.admins[id], nil
}

// SetAdmin grants or revokes the admin role.
func (s *Store) SetAdmin(_ context.Context, id uuid.UUID, admin bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return apperr.NotFound("user")
	}
	if admin {
		s.admins[id] = true
	} else {
		delete(s.admins, id)
	}
	return nil
}

// ListAccountIDsExcept returns every account ID other than exclude.
func (s *Store) ListAccountIDsExcept(_ context.Context, exclude uuid.UUID) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(s.users))
	for id := range s.users {
		if id != exclude {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
