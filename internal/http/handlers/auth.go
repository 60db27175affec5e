package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/amnii/internal/account"
	"github.com/geocoder89/amnii/internal/actorctx"
	"github.com/geocoder89/amnii/internal/config"
	"github.com/geocoder89/amnii/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type AccountService interface {
	Register(ctx context.Context, in user.RegisterInput) (account.RegisterResult, error)
	Login(ctx context.Context, in user.LoginInput) (string, error)
	Me(ctx context.Context, subjectID string) (user.Public, error)
}

type AuthHandler struct {
	accounts AccountService
	log      *slog.Logger
}

func NewAuthHandler(accounts AccountService, log *slog.Logger) *AuthHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AuthHandler{accounts: accounts, log: log}
}

// Register answers 200 with the public projection and the new token in the
// Authorization response header.
func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.RegisterInput

	if !DecodeJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	res, err := h.accounts.Register(cctx, req)

	if err != nil {
		if respondInputError(ctx, err) {
			return
		}
		if errors.Is(err, user.ErrAlreadyRegistered) {
			RespondError(ctx, http.StatusBadRequest, "already_registered", "User already registered", nil)
			return
		}

		h.log.ErrorContext(ctx.Request.Context(), "register failed", "err", err)
		RespondInternal(ctx, "Could not create user")
		return
	}

	ctx.Header("Authorization", res.Token)
	ctx.JSON(http.StatusOK, res.User)
}

// Login answers 200 with the raw token as a text/plain body.
func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginInput

	if !DecodeJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	token, err := h.accounts.Login(cctx, req)

	if err != nil {
		if respondInputError(ctx, err) {
			return
		}
		if errors.Is(err, user.ErrInvalidCredentials) {
			RespondError(ctx, http.StatusBadRequest, "invalid_credentials", "Invalid email or password", nil)
			return
		}

		h.log.ErrorContext(ctx.Request.Context(), "login failed", "err", err)
		RespondInternal(ctx, "Could not sign in")
		return
	}

	ctx.String(http.StatusOK, token)
}

// Me reads the subject from the identity RequireAuth put on the request
// context.
func (h *AuthHandler) Me(ctx *gin.Context) {
	id, ok := actorctx.UserIDFrom(ctx.Request.Context())

	if !ok {
		h.log.ErrorContext(ctx.Request.Context(), "me reached without identity")
		RespondInternal(ctx, "Internal server error")
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	u, err := h.accounts.Me(cctx, id)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "The user with the given ID was not found.")
			return
		}

		h.log.ErrorContext(ctx.Request.Context(), "load current user failed", "err", err)
		RespondInternal(ctx, "Could not load user")
		return
	}

	ctx.JSON(http.StatusOK, u)
}
