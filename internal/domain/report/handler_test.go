package report

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func newTestHandler() (*Handler, *testEnv, *echo.Echo) {
	env := newTestEnv()
	return NewHandler(env.svc), env, echo.New()
}

func withID(e *echo.Echo, method, id string) (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(method, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues(id)
	return c, rec
}

func TestHandler_GetReport(t *testing.T) {
	h, env, e := newTestHandler()
	pid := env.addPatient()

	c, rec := withID(e, http.MethodGet, pid.String())
	if err := h.GetReport(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("expected text/html, got %q", ct)
	}
}

func TestHandler_GetReport_NotFound(t *testing.T) {
	h, _, e := newTestHandler()
	c, _ := withID(e, http.MethodGet, uuid.New().String())
	err := h.GetReport(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}

func TestHandler_ArchiveReport(t *testing.T) {
	h, env, e := newTestHandler()
	pid := env.addPatient()

	c, rec := withID(e, http.MethodPost, pid.String())
	if err := h.ArchiveReport(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"key":"reports/`+pid.String()) {
		t.Errorf("expected archive key, got %s", rec.Body.String())
	}

	c, rec = withID(e, http.MethodGet, pid.String())
	if err := h.ListArchives(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Count(rec.Body.String(), `"key"`) != 1 {
		t.Errorf("expected one archive listed, got %s", rec.Body.String())
	}
}

func TestHandler_InvalidID(t *testing.T) {
	h, _, e := newTestHandler()
	c, _ := withID(e, http.MethodGet, "nope")
	var he *echo.HTTPError
	if err := h.GetReport(c); !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}
