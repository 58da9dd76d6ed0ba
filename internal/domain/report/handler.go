package report

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carepath/carepath/internal/platform/apperr"
	"github.com/carepath/carepath/pkg/response"
)

const notFoundMsg = "patient not found"

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/patients/:id/report", h.GetReport)
	api.POST("/patients/:id/report/archive", h.ArchiveReport)
	api.GET("/patients/:id/report/archives", h.ListArchives)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func (h *Handler) GetReport(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	page, err := h.svc.Render(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err, notFoundMsg)
	}
	return c.HTMLBlob(http.StatusOK, page)
}

func (h *Handler) ArchiveReport(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	meta, err := h.svc.Archive(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err, notFoundMsg)
	}
	return response.JSON(c, http.StatusCreated, meta)
}

func (h *Handler) ListArchives(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListArchives(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err, notFoundMsg)
	}
	return response.JSON(c, http.StatusOK, items)
}
