package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/tasktracker/internal/config"
	"github.com/geocoder89/tasktracker/internal/domain/task"
	"github.com/geocoder89/tasktracker/internal/http/middlewares"
	"github.com/geocoder89/tasktracker/internal/policy"
	"github.com/geocoder89/tasktracker/internal/utils"
	"github.com/gin-gonic/gin"
)

type TaskWorkflow interface {
	ListOwn(ctx context.Context, id policy.Identity) ([]task.Task, error)
	Create(ctx context.Context, id policy.Identity, f task.Fields) (task.Task, error)
	Get(ctx context.Context, id policy.Identity, taskID string) (task.Task, error)
	Update(ctx context.Context, id policy.Identity, taskID string, f task.Fields) (task.Task, error)
	Delete(ctx context.Context, id policy.Identity, taskID string) error
}

type TasksHandler struct {
	tasks TaskWorkflow
	log   *slog.Logger
}

func NewTasksHandler(tasks TaskWorkflow, log *slog.Logger) *TasksHandler {
	return &TasksHandler{tasks: tasks, log: log}
}

func storeCtx(ctx *gin.Context) (context.Context, context.CancelFunc) {
	return config.WithTimeoutFrom(ctx.Request.Context(), 3*time.Second)
}

// taskID reads the :id path parameter. Anything that is not a UUID cannot
// name a task, so it is answered as not found.
func taskID(ctx *gin.Context) (string, bool) {
	id := ctx.Param("id")
	if !utils.IsUUID(id) {
		RespondNotFound(ctx, "Task not found")
		return "", false
	}
	return id, true
}

func bindTaskFields(ctx *gin.Context) (task.Fields, bool) {
	var req task.Request
	if !BindJSON(ctx, &req) {
		return task.Fields{}, false
	}

	f, err := req.Fields()
	if err != nil {
		RespondBadRequest(ctx, "Invalid task", gin.H{"reason": err.Error()})
		return task.Fields{}, false
	}
	return f, true
}

// ListOwn backs GET /submit/: the caller's tasks, newest first.
func (h *TasksHandler) ListOwn(ctx *gin.Context) {
	cctx, cancel := storeCtx(ctx)
	defer cancel()

	items, err := h.tasks.ListOwn(cctx, middlewares.IdentityFromContext(ctx))
	if err != nil {
		respondServiceError(ctx, h.log, err, "list tasks")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
	})
}

// Submit backs POST /submit/.
func (h *TasksHandler) Submit(ctx *gin.Context) {
	f, ok := bindTaskFields(ctx)
	if !ok {
		return
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	created, err := h.tasks.Create(cctx, middlewares.IdentityFromContext(ctx), f)
	if err != nil {
		respondServiceError(ctx, h.log, err, "create task")
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

// Get backs both GET /task/:id/edit/ and the delete confirmation page.
func (h *TasksHandler) Get(ctx *gin.Context) {
	id, ok := taskID(ctx)
	if !ok {
		return
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	t, err := h.tasks.Get(cctx, middlewares.IdentityFromContext(ctx), id)
	if err != nil {
		respondServiceError(ctx, h.log, err, "load task")
		return
	}

	ctx.JSON(http.StatusOK, t)
}

func (h *TasksHandler) Update(ctx *gin.Context) {
	id, ok := taskID(ctx)
	if !ok {
		return
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	caller := middlewares.IdentityFromContext(ctx)

	// the body is only read once the task is known to be the caller's
	if _, err := h.tasks.Get(cctx, caller, id); err != nil {
		respondServiceError(ctx, h.log, err, "load task")
		return
	}

	f, ok := bindTaskFields(ctx)
	if !ok {
		return
	}

	updated, err := h.tasks.Update(cctx, caller, id, f)
	if err != nil {
		respondServiceError(ctx, h.log, err, "update task")
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

func (h *TasksHandler) Delete(ctx *gin.Context) {
	id, ok := taskID(ctx)
	if !ok {
		return
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	if err := h.tasks.Delete(cctx, middlewares.IdentityFromContext(ctx), id); err != nil {
		respondServiceError(ctx, h.log, err, "delete task")
		return
	}

	ctx.Status(http.StatusNoContent)
}
