package checklist

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carepath/carepath/internal/platform/apperr"
	"github.com/carepath/carepath/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/checklists", h.List)
	api.GET("/checklists/templates", h.Templates)
	api.POST("/checklists/generate", h.Generate)
	api.PUT("/checklists/:id/complete", h.Toggle)
}

func (h *Handler) Generate(c echo.Context) error {
	var req GenerateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	cl, created, err := h.svc.Generate(c.Request().Context(), req)
	if err != nil {
		return apperr.ToHTTP(err, "patient not found")
	}
	if created {
		return response.JSON(c, http.StatusCreated, cl)
	}
	return response.JSON(c, http.StatusOK, cl)
}

func (h *Handler) List(c echo.Context) error {
	pid, err := uuid.Parse(c.QueryParam("patient_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id is required")
	}
	cl, err := h.svc.List(c.Request().Context(), pid, c.QueryParam("transfer_type"))
	if err != nil {
		return apperr.ToHTTP(err, "patient not found")
	}
	return response.JSON(c, http.StatusOK, cl)
}

func (h *Handler) Toggle(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	it, err := h.svc.Toggle(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err, "checklist item not found")
	}
	return response.JSON(c, http.StatusOK, it)
}

func (h *Handler) Templates(c echo.Context) error {
	return response.JSON(c, http.StatusOK, TransferTypes())
}
