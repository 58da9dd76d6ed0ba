package facility

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carepath/carepath/internal/platform/auth"
)

func newTestHandler() (*Handler, *testEnv, *echo.Echo) {
	env := newTestEnv()
	return NewHandler(env.svc), env, echo.New()
}

func expectHTTPError(t *testing.T, err error, code int) {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != code {
		t.Fatalf("expected %d HTTPError, got %v", code, err)
	}
}

// routedServer mounts the handler under /api behind an identity with roles.
func routedServer(h *Handler, roles ...string) *echo.Echo {
	e := echo.New()
	api := e.Group("/api", func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := auth.WithIdentity(c.Request().Context(), "u1", roles)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	})
	h.RegisterRoutes(api)
	return e
}

const newFacilityBody = `{"name":"Gangnam Rehab","facility_type":"rehabilitation","region":"Seoul","total_beds":50,"available_beds":5,"monthly_cost":3100000,"specialties":["stroke"]}`

func TestHandler_CreateFacility(t *testing.T) {
	h, env, e := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/api/facilities", strings.NewReader(newFacilityBody))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := h.CreateFacility(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	if len(env.repo.store) != 1 {
		t.Errorf("expected 1 stored facility")
	}
}

func TestHandler_CreateFacility_InvalidType(t *testing.T) {
	h, _, e := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/api/facilities", strings.NewReader(`{"name":"x","facility_type":"hotel"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	expectHTTPError(t, h.CreateFacility(e.NewContext(req, httptest.NewRecorder())), http.StatusBadRequest)
}

func TestHandler_CreateFacility_RoleRequired(t *testing.T) {
	tests := []struct {
		roles []string
		want  int
	}{
		{[]string{auth.RoleCaregiver}, http.StatusForbidden},
		{[]string{auth.RoleCoordinator}, http.StatusCreated},
		{[]string{auth.RoleAdmin}, http.StatusCreated},
		{nil, http.StatusForbidden},
	}
	for _, tc := range tests {
		h, _, _ := newTestHandler()
		e := routedServer(h, tc.roles...)
		req := httptest.NewRequest(http.MethodPost, "/api/facilities", strings.NewReader(newFacilityBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Errorf("roles %v: expected %d, got %d", tc.roles, tc.want, rec.Code)
		}
	}
}

func TestHandler_SearchFacilities(t *testing.T) {
	h, env, _ := newTestHandler()
	env.svc.Seed(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	e := routedServer(h, auth.RoleCaregiver)

	req := httptest.NewRequest(http.MethodGet, "/api/facilities/search?type=nursing_hospital&region=seoul&available=true", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var result struct {
		Success bool        `json:"success"`
		Data    []*Facility `json:"data"`
		Total   int         `json:"total"`
	}
	json.Unmarshal(rec.Body.Bytes(), &result)
	if !result.Success || result.Total != 1 || result.Data[0].Name != "Hangang Nursing Hospital" {
		t.Errorf("unexpected search result: %s", rec.Body.String())
	}
}

func TestHandler_SearchFacilities_BadParams(t *testing.T) {
	h, _, e := newTestHandler()
	for _, q := range []string{"max_cost=cheap", "available=maybe", "type=hotel"} {
		req := httptest.NewRequest(http.MethodGet, "/api/facilities/search?"+q, nil)
		err := h.SearchFacilities(e.NewContext(req, httptest.NewRecorder()))
		expectHTTPError(t, err, http.StatusBadRequest)
	}
}

func TestHandler_GetFacility(t *testing.T) {
	h, env, e := newTestHandler()
	f := &Facility{Name: "x", FacilityType: "home"}
	env.svc.CreateFacility(httptest.NewRequest(http.MethodGet, "/", nil).Context(), f)

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(f.ID.String())
	if err := h.GetFacility(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())
	expectHTTPError(t, h.GetFacility(c), http.StatusNotFound)
}

func TestHandler_ListFacilities(t *testing.T) {
	h, env, e := newTestHandler()
	env.svc.Seed(httptest.NewRequest(http.MethodGet, "/", nil).Context())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/facilities?limit=5", nil)
	if err := h.ListFacilities(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"total":8`) || !strings.Contains(rec.Body.String(), `"has_more":true`) {
		t.Errorf("unexpected list body: %s", rec.Body.String())
	}
}
