package cost

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carepath/carepath/internal/platform/apperr"
	"github.com/carepath/carepath/pkg/pagination"
	"github.com/carepath/carepath/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/costs/calculate", h.Calculate)
	api.GET("/costs/simulations", h.ListSimulations)
}

func (h *Handler) Calculate(c echo.Context) error {
	var req CalculateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	result, err := h.svc.Calculate(c.Request().Context(), req)
	if err != nil {
		return apperr.ToHTTP(err, "patient not found")
	}
	status := http.StatusOK
	if result.SimulationID != nil {
		status = http.StatusCreated
	}
	return response.JSON(c, status, result)
}

func (h *Handler) ListSimulations(c echo.Context) error {
	pid, err := uuid.Parse(c.QueryParam("patient_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id is required")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListSimulations(c.Request().Context(), pid, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	if items == nil {
		items = []*Simulation{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
