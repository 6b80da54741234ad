package handlers

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/geocoder89/tasktracker/internal/domain/task"
	"github.com/geocoder89/tasktracker/internal/domain/user"
	"github.com/geocoder89/tasktracker/internal/http/middlewares"
	"github.com/geocoder89/tasktracker/internal/policy"
	"github.com/geocoder89/tasktracker/internal/utils"
	"github.com/gin-gonic/gin"
)

type Reports interface {
	ListAll(ctx context.Context, id policy.Identity, f task.Filter) ([]task.Entry, error)
	ExportCSV(ctx context.Context, id policy.Identity, f task.Filter, w io.Writer) (int, error)
	Employees(ctx context.Context, id policy.Identity) ([]user.User, error)
}

type ReportsHandler struct {
	reports Reports
	log     *slog.Logger
}

func NewReportsHandler(reports Reports, log *slog.Logger) *ReportsHandler {
	return &ReportsHandler{reports: reports, log: log}
}

// parseFilter reads ?date=YYYY-MM-DD&employee=<id>. Empty values mean no
// filter.
func parseFilter(ctx *gin.Context) (task.Filter, bool) {
	var f task.Filter

	if raw := strings.TrimSpace(ctx.Query("date")); raw != "" {
		d, err := task.ParseDate(raw)
		if err != nil {
			RespondBadRequest(ctx, "Invalid filter", fieldDetails("date", "datetime", validationMessage("datetime", "")))
			return task.Filter{}, false
		}
		f.Date = &d
	}

	if raw := strings.TrimSpace(ctx.Query("employee")); raw != "" {
		if !utils.IsUUID(raw) {
			RespondBadRequest(ctx, "Invalid filter", fieldDetails("employee", "uuid", validationMessage("uuid", "")))
			return task.Filter{}, false
		}
		f.EmployeeID = &raw
	}

	return f, true
}

func filterEcho(f task.Filter) gin.H {
	out := gin.H{"date": "", "employee": ""}
	if f.Date != nil {
		out["date"] = f.Date.Format(task.DateLayout)
	}
	if f.EmployeeID != nil {
		out["employee"] = *f.EmployeeID
	}
	return out
}

// Dashboard backs GET /dashboard/.
func (h *ReportsHandler) Dashboard(ctx *gin.Context) {
	id := middlewares.IdentityFromContext(ctx)

	// role first, so employees are redirected even with a malformed query
	if err := policy.Authorize(id, policy.ActionViewDashboard).Err(); err != nil {
		respondServiceError(ctx, h.log, err, "load dashboard")
		return
	}

	f, ok := parseFilter(ctx)
	if !ok {
		return
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	items, err := h.reports.ListAll(cctx, id, f)
	if err != nil {
		respondServiceError(ctx, h.log, err, "load dashboard")
		return
	}

	employees, err := h.reports.Employees(cctx, id)
	if err != nil {
		respondServiceError(ctx, h.log, err, "load dashboard")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{
		"items":     items,
		"count":     len(items),
		"employees": employees,
		"filters":   filterEcho(f),
	})
}

// Export backs GET /export/. The CSV is built in memory first so a failure
// can still be reported with a proper status.
func (h *ReportsHandler) Export(ctx *gin.Context) {
	id := middlewares.IdentityFromContext(ctx)

	if err := policy.Authorize(id, policy.ActionExportTasks).Err(); err != nil {
		respondServiceError(ctx, h.log, err, "export tasks")
		return
	}

	f, ok := parseFilter(ctx)
	if !ok {
		return
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	var buf bytes.Buffer
	if _, err := h.reports.ExportCSV(cctx, id, f, &buf); err != nil {
		respondServiceError(ctx, h.log, err, "export tasks")
		return
	}

	ctx.Header("Content-Disposition", `attachment; filename="tasks.csv"`)
	ctx.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
