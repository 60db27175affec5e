// Package account implements signup, signin and the current-user lookup on
// top of a user.Store, a password hasher and a token issuer.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/geocoder89/amnii/internal/domain/user"
	"github.com/geocoder89/amnii/internal/observability"
	"github.com/geocoder89/amnii/internal/security"
	"github.com/geocoder89/amnii/internal/validation"
)

type PasswordHasher interface {
	Hash(ctx context.Context, plain string) (string, error)
	Verify(ctx context.Context, plain, hash string) bool
	VerifyMissing(ctx context.Context, plain string) bool
}

type TokenIssuer interface {
	Issue(userID string, isAdmin bool) (string, error)
}

type Service struct {
	users     user.Store
	hasher    PasswordHasher
	tokens    TokenIssuer
	validator *validation.Validator
	prom      *observability.Prom
	log       *slog.Logger
}

type Option func(*Service)

func WithProm(p *observability.Prom) Option {
	return func(s *Service) { s.prom = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

func NewService(users user.Store, hasher PasswordHasher, tokens TokenIssuer, opts ...Option) *Service {
	s := &Service{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		validator: validation.Default(),
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type RegisterResult struct {
	Token string
	User  user.Public
}

// Register creates a non-admin user and returns a token for it.
//
// The email pre-check only gives the common case a cheap answer; two
// concurrent signups can both pass it, so the store's unique key is what
// actually decides, and its ErrEmailTaken maps to the same conflict.
func (s *Service) Register(ctx context.Context, in user.RegisterInput) (res RegisterResult, err error) {
	defer func() { s.prom.AuthAttempt("register", outcome(err)) }()

	in.Email = user.NormalizeEmail(in.Email)

	if err = s.validator.Struct(in); err != nil {
		return
	}

	_, err = s.users.GetByEmail(ctx, in.Email)
	switch {
	case err == nil:
		err = user.ErrAlreadyRegistered
		return
	case !errors.Is(err, user.ErrNotFound):
		err = fmt.Errorf("lookup user: %w", err)
		return
	}

	start := time.Now()
	hash, err := s.hasher.Hash(ctx, in.Password)
	s.prom.ObservePassword("hash", start)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooLong) {
			err = &validation.Error{Fields: []validation.FieldError{{
				Field:   "password",
				Rule:    "max",
				Param:   "72",
				Message: "must be at most 72 bytes long",
			}}}
			return
		}
		err = fmt.Errorf("hash password: %w", err)
		return
	}

	// isAdmin is never taken from the caller
	u, err := s.users.Create(ctx, user.NewUser{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		IsAdmin:      false,
	})
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			err = user.ErrAlreadyRegistered
			return
		}
		err = fmt.Errorf("create user: %w", err)
		return
	}

	token, err := s.tokens.Issue(u.ID, u.IsAdmin)
	if err != nil {
		err = fmt.Errorf("issue token: %w", err)
		return
	}

	s.log.InfoContext(ctx, "user registered", "user_id", u.ID)

	res = RegisterResult{Token: token, User: u.Public()}
	return
}

// Login returns a token for valid credentials. An unknown email and a wrong
// password both yield user.ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, in user.LoginInput) (token string, err error) {
	defer func() { s.prom.AuthAttempt("login", outcome(err)) }()

	in.Email = user.NormalizeEmail(in.Email)

	if err = s.validator.Struct(in); err != nil {
		return
	}

	u, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			err = fmt.Errorf("lookup user: %w", err)
			return
		}
		start := time.Now()
		s.hasher.VerifyMissing(ctx, in.Password)
		s.prom.ObservePassword("verify", start)

		err = user.ErrInvalidCredentials
		return
	}

	start := time.Now()
	ok := s.hasher.Verify(ctx, in.Password, u.PasswordHash)
	s.prom.ObservePassword("verify", start)

	if !ok {
		err = user.ErrInvalidCredentials
		return
	}

	token, err = s.tokens.Issue(u.ID, u.IsAdmin)
	if err != nil {
		err = fmt.Errorf("issue token: %w", err)
		return
	}

	return token, nil
}

func (s *Service) Me(ctx context.Context, subjectID string) (user.Public, error) {
	u, err := s.users.GetByID(ctx, subjectID)
	if err != nil {
		return user.Public{}, err
	}
	return u.Public(), nil
}

func outcome(err error) string {
	var vErr *validation.Error
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &vErr):
		return "invalid_input"
	case errors.Is(err, user.ErrAlreadyRegistered):
		return "conflict"
	case errors.Is(err, user.ErrInvalidCredentials):
		return "invalid_credentials"
	default:
		return "error"
	}
}
