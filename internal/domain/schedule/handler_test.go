package schedule

import (
	"encoding/json"
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

func expectHTTPError(t *testing.T, err error, code int) {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != code {
		t.Fatalf("expected %d HTTPError, got %v", code, err)
	}
}

func postSchedule(h *Handler, e *echo.Echo, body string) (*httptest.ResponseRecorder, error) {
	req := httptest.NewRequest(http.MethodPost, "/api/schedules", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return rec, h.CreateSchedule(e.NewContext(req, rec))
}

func shiftBody(pid uuid.UUID, start, end string) string {
	return `{"patient_id":"` + pid.String() + `","caregiver_name":"Choi","caregiver_role":"paid_caregiver",` +
		`"start_time":"` + start + `","end_time":"` + end + `"}`
}

func TestHandler_CreateSchedule(t *testing.T) {
	h, env, e := newTestHandler()
	rec, err := postSchedule(h, e, shiftBody(env.patient(), "2026-05-04T08:00:00Z", "2026-05-04T12:00:00Z"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"caregiver_role":"paid_caregiver"`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestHandler_CreateSchedule_EndBeforeStart(t *testing.T) {
	h, env, e := newTestHandler()
	_, err := postSchedule(h, e, shiftBody(env.patient(), "2026-05-04T12:00:00Z", "2026-05-04T08:00:00Z"))
	expectHTTPError(t, err, http.StatusBadRequest)
}

func TestHandler_Gaps(t *testing.T) {
	h, env, e := newTestHandler()
	pid := env.patient()
	postSchedule(h, e, shiftBody(pid, "2026-05-04T08:00:00Z", "2026-05-04T10:00:00Z"))
	postSchedule(h, e, shiftBody(pid, "2026-05-04T12:00:00Z", "2026-05-04T14:00:00Z"))

	req := httptest.NewRequest(http.MethodGet, "/api/schedules/gaps?patient_id="+pid.String(), nil)
	rec := httptest.NewRecorder()
	if err := h.Gaps(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var result struct {
		Success bool `json:"success"`
		Data    []struct {
			Start         string  `json:"start"`
			End           string  `json:"end"`
			DurationHours float64 `json:"duration_hours"`
		} `json:"data"`
	}
	json.Unmarshal(rec.Body.Bytes(), &result)
	if len(result.Data) != 1 || result.Data[0].DurationHours != 2 {
		t.Fatalf("expected one 2h gap, got %s", rec.Body.String())
	}
	if result.Data[0].Start != "2026-05-04T10:00:00Z" || result.Data[0].End != "2026-05-04T12:00:00Z" {
		t.Errorf("unexpected gap bounds: %+v", result.Data[0])
	}
}

func TestHandler_Gaps_NoGapsIsEmptyArray(t *testing.T) {
	h, env, e := newTestHandler()
	pid := env.patient()
	req := httptest.NewRequest(http.MethodGet, "/api/schedules/gaps?patient_id="+pid.String(), nil)
	rec := httptest.NewRecorder()
	if err := h.Gaps(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"data":[]`) {
		t.Errorf("expected empty array, got %s", rec.Body.String())
	}
}

func TestHandler_List_Paginated(t *testing.T) {
	h, env, e := newTestHandler()
	pid := env.patient()
	for _, hour := range []string{"08", "12", "16"} {
		if _, err := postSchedule(h, e, shiftBody(pid, "2026-05-04T"+hour+":00:00Z", "2026-05-04T"+hour+":30:00Z")); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/schedules?limit=2", nil)
	rec := httptest.NewRecorder()
	if err := h.ListSchedules(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var result struct {
		Success bool        `json:"success"`
		Data    []*Schedule `json:"data"`
		Total   int         `json:"total"`
		Limit   int         `json:"limit"`
		HasMore bool        `json:"has_more"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !result.Success || len(result.Data) != 2 || result.Total != 3 || result.Limit != 2 || !result.HasMore {
		t.Fatalf("unexpected page: %s", rec.Body.String())
	}
	if result.Data[0].StartTime.Hour() != 8 {
		t.Errorf("expected entries ordered by start time, got %v first", result.Data[0].StartTime)
	}
}

func TestHandler_List_BadTimestamp(t *testing.T) {
	h, _, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/api/schedules?from=yesterday", nil)
	expectHTTPError(t, h.ListSchedules(e.NewContext(req, httptest.NewRecorder())), http.StatusBadRequest)
}

func TestHandler_DeleteSchedule(t *testing.T) {
	h, env, e := newTestHandler()
	postSchedule(h, e, shiftBody(env.patient(), "2026-05-04T08:00:00Z", "2026-05-04T12:00:00Z"))
	var id uuid.UUID
	for k := range env.repo.store {
		id = k
	}

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues(id.String())
	if err := h.DeleteSchedule(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}

	c = e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(id.String())
	expectHTTPError(t, h.DeleteSchedule(c), http.StatusNotFound)
}

func TestHandler_GetSchedule_InvalidID(t *testing.T) {
	h, _, e := newTestHandler()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("abc")
	expectHTTPError(t, h.GetSchedule(c), http.StatusBadRequest)
}
