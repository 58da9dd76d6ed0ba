package schedule

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carepath/carepath/internal/platform/apperr"
	"github.com/carepath/carepath/pkg/pagination"
	"github.com/carepath/carepath/pkg/response"
)

const notFoundMsg = "schedule not found"

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/schedules", h.ListSchedules)
	api.GET("/schedules/gaps", h.Gaps)
	api.GET("/schedules/:id", h.GetSchedule)
	api.POST("/schedules", h.CreateSchedule)
	api.PUT("/schedules/:id", h.UpdateSchedule)
	api.DELETE("/schedules/:id", h.DeleteSchedule)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// parseFilter reads patient_id, from and to. Times are RFC 3339.
func parseFilter(c echo.Context) (ListFilter, error) {
	var f ListFilter
	if v := c.QueryParam("patient_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return f, echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		f.PatientID = &id
	}
	for name, dst := range map[string]**time.Time{"from": &f.From, "to": &f.To} {
		v := c.QueryParam(name)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, echo.NewHTTPError(http.StatusBadRequest, name+" must be an RFC 3339 timestamp")
		}
		*dst = &t
	}
	return f, nil
}

func (h *Handler) CreateSchedule(c echo.Context) error {
	var in Input
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	s, err := h.svc.CreateSchedule(c.Request().Context(), in)
	if err != nil {
		return apperr.ToHTTP(err, notFoundMsg)
	}
	return response.JSON(c, http.StatusCreated, s)
}

func (h *Handler) GetSchedule(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	s, err := h.svc.GetSchedule(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err, notFoundMsg)
	}
	return response.JSON(c, http.StatusOK, s)
}

func (h *Handler) UpdateSchedule(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var in Input
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	s, err := h.svc.UpdateSchedule(c.Request().Context(), id, in)
	if err != nil {
		return apperr.ToHTTP(err, notFoundMsg)
	}
	return response.JSON(c, http.StatusOK, s)
}

func (h *Handler) DeleteSchedule(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteSchedule(c.Request().Context(), id); err != nil {
		return apperr.ToHTTP(err, notFoundMsg)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListSchedules(c echo.Context) error {
	f, err := parseFilter(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListSchedules(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.ToHTTP(err, notFoundMsg)
	}
	if items == nil {
		items = []*Schedule{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset).WithLinks("/api/schedules"))
}

func (h *Handler) Gaps(c echo.Context) error {
	f, err := parseFilter(c)
	if err != nil {
		return err
	}
	gaps, err := h.svc.Gaps(c.Request().Context(), f)
	if err != nil {
		return apperr.ToHTTP(err, notFoundMsg)
	}
	return response.JSON(c, http.StatusOK, gaps)
}
