package handlers

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/geocoder89/bookinghub/internal/apperr"
	"github.com/geocoder89/bookinghub/internal/auth"
	"github.com/geocoder89/bookinghub/internal/domain/user"
	"github.com/geocoder89/bookinghub/internal/jobs"
	"github.com/geocoder89/bookinghub/internal/security"
	"github.com/gin-gonic/gin"
)

const (
	MsgInvalidCredentials = "Invalid email or password"
	MsgAccountDeactivated = "Account is deactivated"
	MsgEmailTaken         = "Email already in use"
	MsgInvalidResetToken  = "Invalid or expired reset token"
	MsgInvalidVerifyToken = "Invalid or expired verification token"
)

type AuthHandler struct {
	users  UserStore
	tokens *auth.Manager
	jobs   JobEnqueuer
	log    *slog.Logger
}

func NewAuthHandler(users UserStore, tokens *auth.Manager, jobQueue JobEnqueuer, log *slog.Logger) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, jobs: jobQueue, log: log}
}

type AuthResponse struct {
	Token string          `json:"token"`
	User  user.PublicUser `json:"user"`
}

// dummyHash is compared against when the email is unknown so a miss costs
// the same bcrypt work as a wrong password.
var dummyHash = sync.OnceValue(func() string {
	h, _ := security.HashPassword("bookinghub-no-such-account")
	return h
})

// POST /auth/register
func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest
	if !BindJSON(ctx, &req) {
		return
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		failInternal(ctx, "Could not create user", err)
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	// self-registration is always CUSTOMER; elevation goes through an admin
	u, err := h.users.Create(cctx, req.Email, hash, req.Name, user.RoleCustomer)
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			fail(ctx, apperr.Conflict(MsgEmailTaken))
			return
		}
		failInternal(ctx, "Could not create user", err)
		return
	}

	token, err := h.tokens.Issue(auth.AccessClaims(u))
	if err != nil {
		failInternal(ctx, "Could not issue token", err)
		return
	}

	h.enqueueVerification(cctx, u)

	ctx.JSON(http.StatusCreated, AuthResponse{Token: token, User: u.Public()})
}

// The account already exists at this point, so mail problems are logged
// rather than failing the request.
func (h *AuthHandler) enqueueVerification(ctx context.Context, u user.User) {
	token, err := h.tokens.Issue(auth.EmailVerificationClaims(u), auth.WithTTL(auth.EmailVerificationTTL))
	if err != nil {
		h.log.ErrorContext(ctx, "issue verification token", "err", err, "user_id", u.ID)
		return
	}

	req, err := jobs.NewCreateRequest(jobs.JobEmailVerification, jobs.EmailVerificationPayload{
		UserID: u.ID,
		Email:  u.Email,
		Name:   u.Name,
		Token:  token,
	}, "", &u.ID)
	if err == nil {
		_, err = h.jobs.Create(ctx, req)
	}
	if err != nil {
		h.log.ErrorContext(ctx, "enqueue verification email", "err", err, "user_id", u.ID)
	}
}

// POST /auth/login
func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	u, err := h.users.GetByEmail(cctx, req.Email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			security.CheckPassword(dummyHash(), req.Password)
			fail(ctx, apperr.Unauthorized(MsgInvalidCredentials))
			return
		}
		failInternal(ctx, "Could not log in", err)
		return
	}

	if !security.CheckPassword(u.PasswordHash, req.Password) {
		fail(ctx, apperr.Unauthorized(MsgInvalidCredentials))
		return
	}

	// checked after the password so the flag is not an account oracle
	if !u.Active {
		fail(ctx, apperr.Forbidden(MsgAccountDeactivated))
		return
	}

	token, err := h.tokens.Issue(auth.AccessClaims(u))
	if err != nil {
		failInternal(ctx, "Could not issue token", err)
		return
	}

	ctx.JSON(http.StatusOK, AuthResponse{Token: token, User: u.Public()})
}

// GET /auth/me
func (h *AuthHandler) Me(ctx *gin.Context) {
	identity, ok := currentUser(ctx)
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, identity)
}

// POST /auth/verify-email
func (h *AuthHandler) VerifyEmail(ctx *gin.Context) {
	var req user.VerifyEmailRequest
	if !BindJSON(ctx, &req) {
		return
	}

	claims, err := h.tokens.VerifyPurpose(req.Token, auth.PurposeEmailVerification)
	if err != nil {
		fail(ctx, apperr.BadRequest(MsgInvalidVerifyToken))
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	u, err := h.users.MarkEmailVerified(cctx, claims.UserID())
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			fail(ctx, apperr.BadRequest(MsgInvalidVerifyToken))
			return
		}
		failInternal(ctx, "Could not verify email", err)
		return
	}

	ctx.JSON(http.StatusOK, u.Public())
}

// POST /auth/forgot-password answers 202 whether or not the account exists.
func (h *AuthHandler) ForgotPassword(ctx *gin.Context) {
	var req user.ForgotPasswordRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	u, err := h.users.GetByEmail(cctx, req.Email)
	switch {
	case err == nil && u.Active:
		h.enqueueReset(cctx, u)
	case err != nil && !errors.Is(err, user.ErrNotFound):
		h.log.ErrorContext(cctx, "forgot password lookup", "err", err)
	}

	ctx.JSON(http.StatusAccepted, gin.H{"message": "If the account exists, a reset link has been sent"})
}

func (h *AuthHandler) enqueueReset(ctx context.Context, u user.User) {
	fp := h.tokens.PasswordFingerprint(u.PasswordHash)

	token, err := h.tokens.Issue(auth.PasswordResetClaims(u, fp), auth.WithTTL(auth.PasswordResetTTL))
	if err != nil {
		h.log.ErrorContext(ctx, "issue reset token", "err", err, "user_id", u.ID)
		return
	}

	req, err := jobs.NewCreateRequest(jobs.JobPasswordReset, jobs.PasswordResetPayload{
		UserID: u.ID,
		Email:  u.Email,
		Name:   u.Name,
		Token:  token,
	}, "", &u.ID)
	if err == nil {
		_, err = h.jobs.Create(ctx, req)
	}
	if err != nil {
		h.log.ErrorContext(ctx, "enqueue password reset", "err", err, "user_id", u.ID)
	}
}

// POST /auth/reset-password
func (h *AuthHandler) ResetPassword(ctx *gin.Context) {
	var req user.ResetPasswordRequest
	if !BindJSON(ctx, &req) {
		return
	}

	claims, err := h.tokens.VerifyPurpose(req.Token, auth.PurposePasswordReset)
	if err != nil {
		fail(ctx, apperr.BadRequest(MsgInvalidResetToken))
		return
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	u, err := h.users.GetByID(cctx, claims.UserID())
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			fail(ctx, apperr.BadRequest(MsgInvalidResetToken))
			return
		}
		failInternal(ctx, "Could not reset password", err)
		return
	}

	// the fingerprint moves with the password, so a used token is dead
	want := h.tokens.PasswordFingerprint(u.PasswordHash)
	if subtle.ConstantTimeCompare([]byte(claims.Fingerprint), []byte(want)) != 1 {
		fail(ctx, apperr.BadRequest(MsgInvalidResetToken))
		return
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		failInternal(ctx, "Could not reset password", err)
		return
	}

	if err := h.users.UpdatePassword(cctx, u.ID, hash); err != nil {
		failInternal(ctx, "Could not reset password", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}
