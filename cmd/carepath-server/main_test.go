package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/carepath/carepath/internal/config"
	"github.com/carepath/carepath/internal/platform/auth"
	"github.com/carepath/carepath/internal/platform/cache"
	"github.com/carepath/carepath/internal/platform/db"
	"github.com/carepath/carepath/internal/platform/telemetry"
)

const testSigningKey = "0123456789abcdef0123456789abcdef"

func testConfig(env string) *config.Config {
	return &config.Config{
		Port:           "0",
		Env:            env,
		CORSOrigins:    []string{"http://localhost:3000"},
		RequestTimeout: 5 * time.Second,
		BodyLimit:      "1M",
		RateLimitRPS:   100,
		RateLimitBurst: 100,
		AuthSigningKey: testSigningKey,
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *echo.Echo {
	t.Helper()
	tp, err := telemetry.NewTelemetryProvider(context.Background(), telemetry.TelemetryConfig{})
	if err != nil {
		t.Fatalf("NewTelemetryProvider: %v", err)
	}
	t.Cleanup(func() { tp.Shutdown(context.Background()) })

	e := newEcho(cfg, zerolog.Nop(), tp)
	e.GET("/api/whoami", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"user":  auth.UserIDFromContext(c.Request().Context()),
			"roles": auth.RolesFromContext(c.Request().Context()),
		})
	})
	return e
}

func do(e *echo.Echo, method, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestMigrationSource_Embedded(t *testing.T) {
	migs, err := db.NewMigrator(nil, migrationSource("")).LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations: %v", err)
	}
	if len(migs) != 6 {
		t.Errorf("expected 6 embedded migrations, got %d", len(migs))
	}
}

func TestMigrationSource_Directory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "001_init.sql"), []byte("SELECT 1;"), 0o644); err != nil {
		t.Fatal(err)
	}
	migs, err := db.NewMigrator(nil, migrationSource(dir)).LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations: %v", err)
	}
	if len(migs) != 1 || migs[0].Version != 1 {
		t.Errorf("unexpected migrations: %+v", migs)
	}
}

func TestHealth(t *testing.T) {
	e := newTestServer(t, testConfig("production"))
	rec := do(e, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
	if rec.Header().Get("X-Content-Type-Options") == "" {
		t.Error("expected security headers on public endpoints")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	e := newTestServer(t, testConfig("production"))
	do(e, http.MethodGet, "/health", nil)
	rec := do(e, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAPI_RequiresToken(t *testing.T) {
	e := newTestServer(t, testConfig("production"))
	rec := do(e, http.MethodGet, "/api/whoami", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"success":false`) {
		t.Errorf("expected error envelope, got %s", rec.Body.String())
	}
}

func TestAPI_AcceptsSignedToken(t *testing.T) {
	e := newTestServer(t, testConfig("production"))
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "coord-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Roles: []string{auth.RoleCoordinator},
	})
	signed, err := token.SignedString([]byte(testSigningKey))
	if err != nil {
		t.Fatal(err)
	}

	rec := do(e, http.MethodGet, "/api/whoami", map[string]string{"Authorization": "Bearer " + signed})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "coord-1") || !strings.Contains(rec.Body.String(), auth.RoleCoordinator) {
		t.Errorf("identity not propagated: %s", rec.Body.String())
	}
}

func TestAPI_DevModeIdentity(t *testing.T) {
	e := newTestServer(t, testConfig("development"))
	rec := do(e, http.MethodGet, "/api/whoami", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), auth.RoleCaregiver) {
		t.Errorf("expected caregiver role, got %s", rec.Body.String())
	}
}

func TestRateLimiter(t *testing.T) {
	cfg := testConfig("development")
	cfg.RateLimitRPS = 0.001
	cfg.RateLimitBurst = 2
	e := newTestServer(t, cfg)

	for i := 0; i < 2; i++ {
		if rec := do(e, http.MethodGet, "/api/whoami", nil); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}
	rec := do(e, http.MethodGet, "/api/whoami", nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}

	// Health checks are never throttled.
	if rec := do(e, http.MethodGet, "/health", nil); rec.Code != http.StatusOK {
		t.Errorf("expected /health to bypass the limiter, got %d", rec.Code)
	}
}

func TestBodyLimit(t *testing.T) {
	cfg := testConfig("development")
	cfg.BodyLimit = "1K"
	e := newTestServer(t, cfg)
	e.POST("/api/echo", func(c echo.Context) error {
		var body map[string]interface{}
		if err := c.Bind(&body); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	})

	payload := `{"notes":"` + strings.Repeat("x", 4096) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/echo", strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", rec.Code)
	}
}

func TestNewCache_FallsBackToMemory(t *testing.T) {
	cfg := testConfig("development")
	c, closeFn := newCache(context.Background(), cfg, zerolog.Nop())
	defer closeFn()
	if _, ok := c.(*cache.Memory); !ok {
		t.Errorf("expected memory cache without REDIS_URL, got %T", c)
	}

	cfg.RedisURL = "://not-a-url"
	c, closeFn2 := newCache(context.Background(), cfg, zerolog.Nop())
	defer closeFn2()
	if _, ok := c.(*cache.Memory); !ok {
		t.Errorf("expected memory cache when redis is unreachable, got %T", c)
	}
}

func TestPrintStatus(t *testing.T) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	printStatus(cmd, []db.MigrationStatus{
		{Version: 1, Name: "patients", Applied: true, AppliedAt: &at},
		{Version: 2, Name: "care_pathways"},
	})

	out := buf.String()
	if !strings.Contains(out, "applied") || !strings.Contains(out, "2026-03-01T09:00:00Z") {
		t.Errorf("expected applied row, got:\n%s", out)
	}
	if !strings.Contains(out, "pending") {
		t.Errorf("expected pending row, got:\n%s", out)
	}
}

func TestCommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range []*cobra.Command{serveCmd(), migrateCmd(), seedCmd()} {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "migrate", "seed"} {
		if !names[want] {
			t.Errorf("missing %s command", want)
		}
	}

	sub := map[string]bool{}
	for _, c := range migrateCmd().Commands() {
		sub[c.Name()] = true
	}
	if !sub["up"] || !sub["status"] {
		t.Errorf("migrate subcommands = %v", sub)
	}
}
