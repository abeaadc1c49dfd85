package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gathering-hub/backend/internal/apperr"
	"github.com/gathering-hub/backend/internal/models"
	"github.com/gathering-hub/backend/pkg/database"
)

// Store is the account persistence the auth handler and session middleware need.
type Store interface {
	CreateUser(ctx context.Context, email, passwordHash string, fullName *string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.UserPublic, error)
	IsAdmin(ctx context.Context, id uuid.UUID) (bool, error)
	SetAdmin(ctx context.Context, id uuid.UUID, admin bool) error
}

// Repository handles account and role persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `u.id, u.email, u.password_hash, u.full_name,
	CASE WHEN EXISTS (SELECT 1 FROM user_roles r WHERE r.user_id = u.id AND r.role = 'admin') THEN 'admin' ELSE 'member' END,
	u.created_at, u.updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	var role string
	if err := row.Scan(&u.ID, &u.Email, &u.Password, &u.FullName, &role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	return &u, nil
}

// CreateUser inserts a new account.
func (r *Repository) CreateUser(ctx context.Context, email, passwordHash string, fullName *string) (*models.User, error) {
	const q = `INSERT INTO users (email, password_hash, full_name) VALUES ($1, $2, $3)
		RETURNING id, email, password_hash, full_name, 'member', created_at, updated_at`
	u, err := scanUser(r.pool.QueryRow(ctx, q, email, passwordHash, fullName))
	if database.IsUniqueViolation(err) {
		return nil, apperr.Validation("email already registered")
	}
	if err != nil {
		return nil, apperr.Backend("create user", err)
	}
	return u, nil
}

// GetUserByID returns an account by ID.
func (r *Repository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users u WHERE u.id = $1`, id))
	if err != nil {
		return nil, database.MapErr(err, "get user", "user")
	}
	return u, nil
}

// GetUserByEmail returns an account by email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users u WHERE u.email = $1`, email))
	if err != nil {
		return nil, database.MapErr(err, "get user", "user")
	}
	return u, nil
}

// ListUsers returns all accounts for the admin dashboard.
func (r *Repository) ListUsers(ctx context.Context) ([]models.UserPublic, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users u ORDER BY u.full_name NULLS LAST, u.email`)
	if err != nil {
		return nil, apperr.Backend("list users", err)
	}
	defer rows.Close()
	var list []models.UserPublic
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, apperr.Backend("scan user", err)
		}
		list = append(list, u.ToPublic())
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Backend("list users", err)
	}
	return list, nil
}

// IsAdmin is the privileged role lookup behind every admin capability check.
func (r *Repository) IsAdmin(ctx context.Context, id uuid.UUID) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM user_roles WHERE user_id = $1 AND role = 'admin')`
	var ok bool
	if err := r.pool.QueryRow(ctx, q, id).Scan(&ok); err != nil {
		return false, apperr.Backend("lookup role", err)
	}
	return ok, nil
}

// SetAdmin grants or revokes the admin role.
func (r *Repository) SetAdmin(ctx context.Context, id uuid.UUID, admin bool) error {
	var err error
	if admin {
		_, err = r.pool.Exec(ctx, `INSERT INTO user_roles (user_id, role) VALUES ($1, 'admin') ON CONFLICT DO NOTHING`, id)
	} else {
		_, err = r.pool.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1 AND role = 'admin'`, id)
	}
	if err != nil {
		return apperr.Backend("set role", err)
	}
	return nil
}

// ListAccountIDsExcept returns every account ID other than exclude; the fan-out recipient list.
func (r *Repository) ListAccountIDsExcept(ctx context.Context, exclude uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM users WHERE id <> $1`, exclude)
	if err != nil {
		return nil, apperr.Backend("list recipients", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, apperr.Backend("list recipients", err)
	}
	return ids, nil
}
