package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/geocoder89/tasktracker/internal/domain/user"
	"github.com/geocoder89/tasktracker/internal/http/middlewares"
	"github.com/geocoder89/tasktracker/internal/policy"
	"github.com/geocoder89/tasktracker/internal/utils"
	"github.com/gin-gonic/gin"
)

type EmployeeAdmin interface {
	ListEmployees(ctx context.Context, id policy.Identity) ([]user.User, error)
	GetEmployee(ctx context.Context, id policy.Identity, userID string) (user.User, error)
	EditEmployee(ctx context.Context, id policy.Identity, userID string, req user.UpdateEmployeeRequest) (user.User, error)
	DeleteEmployee(ctx context.Context, id policy.Identity, userID string) error
}

type EmployeesHandler struct {
	admin EmployeeAdmin
	log   *slog.Logger
}

func NewEmployeesHandler(admin EmployeeAdmin, log *slog.Logger) *EmployeesHandler {
	return &EmployeesHandler{admin: admin, log: log}
}

func employeeID(ctx *gin.Context) (string, bool) {
	id := ctx.Param("id")
	if !utils.IsUUID(id) {
		RespondNotFound(ctx, "Employee not found")
		return "", false
	}
	return id, true
}

func (h *EmployeesHandler) List(ctx *gin.Context) {
	cctx, cancel := storeCtx(ctx)
	defer cancel()

	items, err := h.admin.ListEmployees(cctx, middlewares.IdentityFromContext(ctx))
	if err != nil {
		respondServiceError(ctx, h.log, err, "list employees")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
	})
}

func (h *EmployeesHandler) Get(ctx *gin.Context) {
	id, ok := employeeID(ctx)
	if !ok {
		return
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	u, err := h.admin.GetEmployee(cctx, middlewares.IdentityFromContext(ctx), id)
	if err != nil {
		respondServiceError(ctx, h.log, err, "load employee")
		return
	}

	ctx.JSON(http.StatusOK, u)
}

func (h *EmployeesHandler) Edit(ctx *gin.Context) {
	id, ok := employeeID(ctx)
	if !ok {
		return
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	caller := middlewares.IdentityFromContext(ctx)

	if _, err := h.admin.GetEmployee(cctx, caller, id); err != nil {
		respondServiceError(ctx, h.log, err, "load employee")
		return
	}

	var req user.UpdateEmployeeRequest
	if !BindJSON(ctx, &req) {
		return
	}

	u, err := h.admin.EditEmployee(cctx, caller, id, req)
	if err != nil {
		respondServiceError(ctx, h.log, err, "update employee")
		return
	}

	ctx.JSON(http.StatusOK, u)
}

func (h *EmployeesHandler) Delete(ctx *gin.Context) {
	id, ok := employeeID(ctx)
	if !ok {
		return
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	if err := h.admin.DeleteEmployee(cctx, middlewares.IdentityFromContext(ctx), id); err != nil {
		respondServiceError(ctx, h.log, err, "delete employee")
		return
	}

	ctx.Status(http.StatusNoContent)
}
