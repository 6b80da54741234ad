package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/geocoder89/tasktracker/internal/domain/user"
	"github.com/geocoder89/tasktracker/internal/http/middlewares"
	"github.com/geocoder89/tasktracker/internal/policy"
	"github.com/gin-gonic/gin"
)

type Profiles interface {
	Profile(ctx context.Context, id policy.Identity) (user.User, error)
	UpdateProfile(ctx context.Context, id policy.Identity, req user.UpdateProfileRequest) (user.User, error)
}

type ProfileHandler struct {
	profiles Profiles
	log      *slog.Logger
}

func NewProfileHandler(profiles Profiles, log *slog.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, log: log}
}

func (h *ProfileHandler) Show(ctx *gin.Context) {
	cctx, cancel := storeCtx(ctx)
	defer cancel()

	u, err := h.profiles.Profile(cctx, middlewares.IdentityFromContext(ctx))
	if err != nil {
		respondServiceError(ctx, h.log, err, "load profile")
		return
	}

	ctx.JSON(http.StatusOK, u)
}

func (h *ProfileHandler) Update(ctx *gin.Context) {
	var req user.UpdateProfileRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	u, err := h.profiles.UpdateProfile(cctx, middlewares.IdentityFromContext(ctx), req)
	if err != nil {
		respondServiceError(ctx, h.log, err, "update profile")
		return
	}

	ctx.JSON(http.StatusOK, u)
}
