package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/amnii/internal/domain/user"
	"github.com/geocoder89/amnii/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const usersEmailKey = "users_email_key"

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

// Create relies on the users_email_key unique index; a concurrent signup for
// the same email loses here with user.ErrEmailTaken.
func (r *UsersRepo) Create(ctx context.Context, nu user.NewUser) (user.User, error) {
	var u user.User

	err := r.prom.ObserveDB("users_create", func() error {
		return r.pool.QueryRow(ctx,
			`INSERT INTO users (id, name, email, password_hash, is_admin, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
			RETURNING id, name, email, password_hash, is_admin, created_at, updated_at`,
			uuid.NewString(), nu.Name, nu.Email, nu.PasswordHash, nu.IsAdmin,
		).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt)
	})

	if err != nil {
		if isUniqueViolation(err, usersEmailKey) {
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return r.getOne(ctx, "users_get_by_email",
		`SELECT id, name, email, password_hash, is_admin, created_at, updated_at
		FROM users
		WHERE email = $1`,
		email,
	)
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	return r.getOne(ctx, "users_get_by_id",
		`SELECT id, name, email, password_hash, is_admin, created_at, updated_at
		FROM users
		WHERE id = $1`,
		id,
	)
}

func (r *UsersRepo) getOne(ctx context.Context, op, query string, arg any) (user.User, error) {
	var u user.User

	err := r.prom.ObserveDB(op, func() error {
		return r.pool.QueryRow(ctx, query, arg).Scan(
			&u.ID,
			&u.Name,
			&u.Email,
			&u.PasswordHash,
			&u.IsAdmin,
			&u.CreatedAt,
			&u.UpdatedAt,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isBadID(err) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}
