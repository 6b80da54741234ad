package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/geocoder89/tasktracker/internal/auth"
	"github.com/geocoder89/tasktracker/internal/config"
	"github.com/geocoder89/tasktracker/internal/db"
	apphttp "github.com/geocoder89/tasktracker/internal/http"
	"github.com/geocoder89/tasktracker/internal/http/handlers"
	"github.com/geocoder89/tasktracker/internal/http/middlewares"
	"github.com/geocoder89/tasktracker/internal/observability"
	"github.com/geocoder89/tasktracker/internal/repo/memory"
	"github.com/geocoder89/tasktracker/internal/repo/postgres"
	"github.com/geocoder89/tasktracker/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

func testConfig() config.Config {
	return config.Config{
		Env:                "test",
		JWTSecret:          "test-secret-key",
		SessionTTLMinutes:  60,
		OTELServiceName:    "tasktracker-test",
		RateLimitPerMinute: 1000,
		MaxBodyBytes:       1 << 20,
	}
}

type backend struct {
	name  string
	users apphttp.UserStore
	tasks apphttp.TaskStore
	pool  *pgxpool.Pool
}

func memoryBackend() backend {
	mem := memory.NewDB()
	return backend{name: "memory", users: memory.NewUsersRepo(mem), tasks: memory.NewTasksRepo(mem)}
}

// postgresBackend connects to TEST_DB_DSN and starts from empty tables. It
// skips the test when no database is configured.
func postgresBackend(t *testing.T, prom *observability.Prom) backend {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		t.Fatalf("failed to create pgx pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := db.EnsureSchema(ctx, pool); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	resetDB(t, pool)
	t.Cleanup(func() { resetDB(t, pool) })

	return backend{
		name:  "postgres",
		users: postgres.NewUsersRepo(pool, prom),
		tasks: postgres.NewTasksRepo(pool, prom),
		pool:  pool,
	}
}

func resetDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	if _, err := pool.Exec(context.Background(), `TRUNCATE tasks, users CASCADE`); err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
}

type app struct {
	router   *gin.Engine
	jwt      *auth.Manager
	gatherer prometheus.Gatherer
}

func newApp(t *testing.T, b backend, prom *observability.Prom, reg *prometheus.Registry) app {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testConfig()
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
	jwt := auth.NewManager(cfg.JWTSecret, cfg.SessionTTL())

	checks := map[string]handlers.Check{}
	if b.pool != nil {
		checks["postgres"] = b.pool.Ping
	}

	router := apphttp.NewRouter(logger, cfg, apphttp.Deps{
		Users:    b.users,
		Tasks:    b.tasks,
		JWT:      jwt,
		Revoker:  session.NewMemoryRevoker(),
		Prom:     prom,
		Gatherer: reg,
		Checks:   checks,
	})

	return app{router: router, jwt: jwt, gatherer: reg}
}

// forEachBackend runs fn against the memory store and, when configured,
// against Postgres.
func forEachBackend(t *testing.T, fn func(t *testing.T, a app)) {
	t.Run("memory", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		prom := observability.NewProm(reg)
		fn(t, newApp(t, memoryBackend(), prom, reg))
	})
	t.Run("postgres", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		prom := observability.NewProm(reg)
		fn(t, newApp(t, postgresBackend(t, prom), prom, reg))
	})
}

func doRequest(router http.Handler, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func mustReadJSON[T any](t *testing.T, w *httptest.ResponseRecorder, out *T) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("failed to unmarshal json: %v, body=%s", err, w.Body.String())
	}
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, c := range w.Result().Cookies() {
		if c.Name == middlewares.SessionCookie && c.Value != "" {
			return c
		}
	}

	t.Fatalf("session cookie not found in response")
	return nil
}

func registerBody(first, email, role string) string {
	return `{"firstName":"` + first + `","lastName":"Doe","officeEmail":"` + email +
		`","role":"` + role + `","password":"password123","passwordConfirm":"password123"}`
}

func mustRegister(t *testing.T, a app, first, email, role string) {
	t.Helper()

	w := doRequest(a.router, http.MethodPost, "/register/", registerBody(first, email, role))
	if w.Code != http.StatusCreated {
		t.Fatalf("register %s got status %d, body=%s", email, w.Code, w.Body.String())
	}
}

func mustLogin(t *testing.T, a app, email string) *http.Cookie {
	t.Helper()

	w := doRequest(a.router, http.MethodPost, "/login/", `{"officeEmail":"`+email+`","password":"password123"}`)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("login %s got status %d, body=%s", email, w.Code, w.Body.String())
	}
	return sessionCookie(t, w)
}
