package http

import (
	"log/slog"
	"time"

	"github.com/geocoder89/tasktracker/internal/admin"
	"github.com/geocoder89/tasktracker/internal/auth"
	"github.com/geocoder89/tasktracker/internal/config"
	"github.com/geocoder89/tasktracker/internal/http/handlers"
	"github.com/geocoder89/tasktracker/internal/http/middlewares"
	"github.com/geocoder89/tasktracker/internal/identity"
	"github.com/geocoder89/tasktracker/internal/observability"
	"github.com/geocoder89/tasktracker/internal/policy"
	"github.com/geocoder89/tasktracker/internal/reporting"
	"github.com/geocoder89/tasktracker/internal/session"
	"github.com/geocoder89/tasktracker/internal/workflow"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// UserStore is everything the HTTP surface needs from the users table.
// Both the postgres and the memory repos satisfy it.
type UserStore interface {
	identity.UserStore
	admin.EmployeeStore
}

type TaskStore interface {
	workflow.TaskStore
	reporting.TaskLister
}

type Deps struct {
	Users   UserStore
	Tasks   TaskStore
	JWT     *auth.Manager
	Revoker session.Revoker

	// optional; nil disables metrics
	Prom     *observability.Prom
	Gatherer prometheus.Gatherer

	// readiness probes by name
	Checks map[string]handlers.Check
}

func NewRouter(log *slog.Logger, cfg config.Config, deps Deps) *gin.Engine {
	if cfg.Env != "dev" && cfg.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.OTELServiceName))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))
	r.Use(middlewares.RequireJSON())

	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}

	authMW := middlewares.NewAuthMiddleware(deps.JWT, deps.Revoker, deps.Users)
	r.Use(authMW.Authenticate())
	// after Authenticate so the log line carries the user id
	r.Use(middlewares.RequestLogger(log))

	// services
	ids := identity.NewService(deps.Users)
	tasks := workflow.NewService(deps.Tasks)
	reports := reporting.NewService(deps.Tasks, deps.Users, deps.Prom)
	employees := admin.NewService(deps.Users)

	// handlers
	health := handlers.NewHealthHandler(deps.Checks)
	authH := handlers.NewAuthHandler(ids, deps.JWT, deps.Revoker, cfg, deps.Prom, log)
	tasksH := handlers.NewTasksHandler(tasks, log)
	reportsH := handlers.NewReportsHandler(reports, log)
	employeesH := handlers.NewEmployeesHandler(employees, log)
	profileH := handlers.NewProfileHandler(ids, log)

	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	limiter := middlewares.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	limited := limiter.Middleware(middlewares.KeyByIP)

	r.GET("/", authH.Home)
	r.GET("/register/", authH.RegisterForm)
	r.POST("/register/", limited, authH.Register)
	r.GET("/login/", authH.LoginForm)
	r.POST("/login/", limited, authH.Login)
	r.GET("/logout/", authH.Logout)

	// any signed-in user
	member := r.Group("/", authMW.RequireAuth())
	{
		member.GET("/submit/", middlewares.RequireAction(policy.ActionListOwnTasks, deps.Prom), tasksH.ListOwn)
		member.POST("/submit/", middlewares.RequireAction(policy.ActionSubmitTask, deps.Prom), tasksH.Submit)

		// ownership is decided per task inside the workflow service
		member.GET("/task/:id/edit/", tasksH.Get)
		member.POST("/task/:id/edit/", tasksH.Update)
		member.GET("/task/:id/delete/", tasksH.Get)
		member.POST("/task/:id/delete/", tasksH.Delete)

		member.GET("/profile/", middlewares.RequireAction(policy.ActionEditProfile, deps.Prom), profileH.Show)
		member.POST("/profile/", middlewares.RequireAction(policy.ActionEditProfile, deps.Prom), profileH.Update)
	}

	// manager only
	manager := r.Group("/", authMW.RequireAuth())
	{
		manager.GET("/dashboard/", middlewares.RequireAction(policy.ActionViewDashboard, deps.Prom), reportsH.Dashboard)
		manager.GET("/export/", middlewares.RequireAction(policy.ActionExportTasks, deps.Prom), reportsH.Export)

		staff := manager.Group("/employees", middlewares.RequireAction(policy.ActionManageEmployees, deps.Prom))
		staff.GET("/", employeesH.List)
		staff.GET("/edit/:id/", employeesH.Get)
		staff.POST("/edit/:id/", employeesH.Edit)
		staff.POST("/delete/:id/", employeesH.Delete)
	}

	return r
}
