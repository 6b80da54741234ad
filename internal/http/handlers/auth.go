package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/tasktracker/internal/auth"
	"github.com/geocoder89/tasktracker/internal/config"
	"github.com/geocoder89/tasktracker/internal/domain/user"
	"github.com/geocoder89/tasktracker/internal/http/middlewares"
	"github.com/geocoder89/tasktracker/internal/identity"
	"github.com/geocoder89/tasktracker/internal/observability"
	"github.com/geocoder89/tasktracker/internal/policy"
	"github.com/geocoder89/tasktracker/internal/session"
	"github.com/gin-gonic/gin"
)

type Accounts interface {
	Register(ctx context.Context, req user.RegisterRequest) (user.User, error)
	Authenticate(ctx context.Context, email, password string) (policy.Identity, error)
	RegistrableRoles(ctx context.Context) ([]user.Role, error)
}

type SessionIssuer interface {
	GenerateSessionToken(userID, email, role string) (auth.Session, error)
}

type AuthHandler struct {
	accounts Accounts
	jwt      SessionIssuer
	revoker  session.Revoker
	cfg      config.Config
	prom     *observability.Prom
	log      *slog.Logger
}

func NewAuthHandler(accounts Accounts, jwt SessionIssuer, revoker session.Revoker, cfg config.Config, prom *observability.Prom, log *slog.Logger) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		jwt:      jwt,
		revoker:  revoker,
		cfg:      cfg,
		prom:     prom,
		log:      log,
	}
}

// landingFor is where a freshly authenticated caller belongs.
func landingFor(id policy.Identity) string {
	if id.IsManager() {
		return "/dashboard/"
	}
	return "/submit/"
}

// Home sends signed-in callers to their landing page.
func (h *AuthHandler) Home(ctx *gin.Context) {
	id := middlewares.IdentityFromContext(ctx)
	if id.IsAuthenticated() {
		redirect(ctx, landingFor(id))
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"links": gin.H{
			"login":    middlewares.LoginPath,
			"register": "/register/",
		},
	})
}

func (h *AuthHandler) RegisterForm(ctx *gin.Context) {
	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	roles, err := h.accounts.RegistrableRoles(cctx)
	if err != nil {
		respondServiceError(ctx, h.log, err, "load registrable roles")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"fields": []string{"firstName", "lastName", "officeEmail", "role", "password", "passwordConfirm"},
		"roles":  roles,
	})
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	u, err := h.accounts.Register(cctx, req)
	if err != nil {
		h.prom.ObserveRegistration(string(req.Role), registrationResult(err))
		respondServiceError(ctx, h.log, err, "create account")
		return
	}

	h.prom.ObserveRegistration(string(u.Role), "ok")
	ctx.Header("Location", middlewares.LoginPath)
	ctx.JSON(http.StatusCreated, u)
}

func registrationResult(err error) string {
	switch {
	case errors.Is(err, user.ErrDuplicateEmail):
		return "duplicate_email"
	case errors.Is(err, user.ErrRoleConflict):
		return "role_conflict"
	default:
		return "error"
	}
}

func (h *AuthHandler) LoginForm(ctx *gin.Context) {
	if id := middlewares.IdentityFromContext(ctx); id.IsAuthenticated() {
		redirect(ctx, landingFor(id))
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"fields": []string{"officeEmail", "password"}})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest
	if !BindJSON(ctx, &req) {
		return
	}

	// short timeout for the user lookup
	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	id, err := h.accounts.Authenticate(cctx, req.OfficeEmail, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			h.prom.ObserveLogin("invalid")
		} else {
			h.prom.ObserveLogin("error")
		}
		respondServiceError(ctx, h.log, err, "log in")
		return
	}

	s, err := h.jwt.GenerateSessionToken(id.UserID, id.Email, string(id.Role))
	if err != nil {
		h.prom.ObserveLogin("error")
		respondServiceError(ctx, h.log, err, "create session")
		return
	}

	h.prom.ObserveLogin("ok")
	h.setSessionCookie(ctx, s.Token, s.ExpiresAt)
	redirect(ctx, landingFor(id))
}

// Logout revokes the presented token (when there is one) and clears the
// cookie. It always ends at "/".
func (h *AuthHandler) Logout(ctx *gin.Context) {
	if claims, ok := middlewares.ClaimsFromContext(ctx); ok && h.revoker != nil && claims.ExpiresAt != nil {
		cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), 2*time.Second)
		defer cancel()

		if err := h.revoker.Revoke(cctx, claims.JTI, claims.ExpiresAt.Time); err != nil {
			h.logger().WarnContext(ctx.Request.Context(), "session revoke failed",
				"err", err,
				"request_id", requestIDFrom(ctx),
			)
		}
	}

	h.clearSessionCookie(ctx)
	redirect(ctx, "/")
}

func (h *AuthHandler) logger() *slog.Logger {
	if h.log == nil {
		return slog.Default()
	}
	return h.log
}

func (h *AuthHandler) setSessionCookie(ctx *gin.Context, raw string, expiresAt time.Time) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(
		middlewares.SessionCookie,
		raw,
		int(time.Until(expiresAt).Seconds()),
		"/",
		"",
		h.cfg.SecureCookies(),
		true, // HttpOnly.
	)
}

func (h *AuthHandler) clearSessionCookie(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(middlewares.SessionCookie, "", -1, "/", "", h.cfg.SecureCookies(), true)
}
