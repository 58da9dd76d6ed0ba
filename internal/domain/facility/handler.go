package facility

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carepath/carepath/internal/platform/apperr"
	"github.com/carepath/carepath/internal/platform/auth"
	"github.com/carepath/carepath/pkg/pagination"
	"github.com/carepath/carepath/pkg/response"
)

const notFoundMsg = "facility not found"

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	write := auth.RequireRole(auth.RoleCoordinator, auth.RoleAdmin)

	api.GET("/facilities", h.ListFacilities)
	api.GET("/facilities/search", h.SearchFacilities)
	api.GET("/facilities/:id", h.GetFacility)
	api.POST("/facilities", h.CreateFacility, write)
	api.PUT("/facilities/:id", h.UpdateFacility, write)
}

func (h *Handler) CreateFacility(c echo.Context) error {
	var f Facility
	if err := c.Bind(&f); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.CreateFacility(c.Request().Context(), &f); err != nil {
		return apperr.ToHTTP(err, notFoundMsg)
	}
	return response.JSON(c, http.StatusCreated, f)
}

func (h *Handler) UpdateFacility(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var f Facility
	if err := c.Bind(&f); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	f.ID = id
	if err := h.svc.UpdateFacility(c.Request().Context(), &f); err != nil {
		return apperr.ToHTTP(err, notFoundMsg)
	}
	return response.JSON(c, http.StatusOK, f)
}

func (h *Handler) GetFacility(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	f, err := h.svc.GetFacility(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err, notFoundMsg)
	}
	return response.JSON(c, http.StatusOK, f)
}

func (h *Handler) ListFacilities(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListFacilities(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return apperr.ToHTTP(err, notFoundMsg)
	}
	if items == nil {
		items = []*Facility{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset).WithLinks("/api/facilities"))
}

func (h *Handler) SearchFacilities(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := SearchFilter{
		Type:      c.QueryParam("type"),
		Region:    c.QueryParam("region"),
		Specialty: c.QueryParam("specialty"),
	}
	if v := c.QueryParam("max_cost"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "max_cost must be an integer")
		}
		f.MaxCost = n
	}
	if v := c.QueryParam("available"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "available must be true or false")
		}
		f.Available = b
	}

	res, err := h.svc.SearchFacilities(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.ToHTTP(err, notFoundMsg)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(res.Items, res.Total, pg.Limit, pg.Offset))
}
