package server

import (
	"market/internal/config"
	"market/internal/handler"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Order        *handler.OrderHandler
	Payment      *handler.PaymentHandler
	Notification *handler.NotificationHandler
	Point        *handler.PointHandler
}

func RegisterRoutes(e *echo.Echo, cfg config.Config, h Handlers) {
	h.Order.RegisterRoutes(e, cfg)
	h.Payment.RegisterRoutes(e, cfg)
	h.Notification.RegisterRoutes(e, cfg)
	h.Point.RegisterRoutes(e, cfg)
}
