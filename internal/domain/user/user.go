package user

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound = errors.New("user not found")
	// ErrEmailTaken is what a Store returns when its unique email key rejects an insert.
	ErrEmailTaken = errors.New("user email already taken")

	ErrAlreadyRegistered = errors.New("user already registered")
	// returned for both an unknown email and a wrong password
	ErrInvalidCredentials = errors.New("invalid email or password")
)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	IsAdmin      bool      `json:"isAdmin"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Public is the only shape of a user that leaves the service.
type Public struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (u User) Public() Public {
	return Public{ID: u.ID, Name: u.Name, Email: u.Email}
}

// NewUser is what the registration flow hands to a Store. The store assigns
// ID and timestamps.
type NewUser struct {
	Name         string
	Email        string
	PasswordHash string
	IsAdmin      bool
}

// Store persists users. Implementations must enforce email uniqueness
// themselves and report a collision as ErrEmailTaken.
type Store interface {
	Create(ctx context.Context, u NewUser) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required,min=5,max=50"`
	Email    string `json:"email" validate:"required,min=5,max=255,email"`
	Password string `json:"password" validate:"required,min=5,max=72"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,min=5,max=255,email"`
	Password string `json:"password" validate:"required,min=5,max=255"`
}
