package handler

import (
	"net/http"
	"strconv"

	"market/internal/config"
	"market/internal/middleware"
	"market/internal/usecase"

	"github.com/labstack/echo/v4"
)

type PointHandler struct {
	uc *usecase.PointUsecase
}

func NewPointHandler(uc *usecase.PointUsecase) *PointHandler {
	return &PointHandler{uc: uc}
}

func (h *PointHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/points")
	g.Use(middleware.AuthJWT(cfg))

	g.GET("/history", h.history)
}

func (h *PointHandler) history(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	out, err := h.uc.ListMyHistory(c.Request().Context(), userID, page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
