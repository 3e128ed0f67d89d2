package handler

import (
	"context"
	"net/http"
	"os"
	"time"

	"market/internal/config"
	"market/internal/middleware"
	"market/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "payment_handler").Logger()

type PaymentHandler struct {
	uc *usecase.PaymentUsecase
}

func NewPaymentHandler(uc *usecase.PaymentUsecase) *PaymentHandler {
	return &PaymentHandler{uc: uc}
}

type WebhookRequest struct {
	ImpUID      string `json:"imp_uid"`
	MerchantUID string `json:"merchant_uid"`
}

func (h *PaymentHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	//webhookはゲートウェイから来るので認証なし。パスはゲートウェイ側の設定と一致させること。
	e.POST("/payment/webhooks/portone", h.webhook)

	g := e.Group("/payments")
	g.Use(middleware.AuthJWT(cfg))
	g.POST("/complete", h.complete)
}

// webhookは即200を返す。遅いとゲートウェイ側が配送失敗扱いにする。
// 本処理はレスポンス後に回し、エラーはログするだけ。
func (h *PaymentHandler) webhook(c echo.Context) error {
	var req WebhookRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if req.ImpUID == "" || req.MerchantUID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	go func() {
		//リクエストのctxはレスポンスと共に死ぬので使わない
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := h.uc.VerifyPayment(ctx, req.ImpUID, req.MerchantUID); err != nil {
			logger.Error().Err(err).
				Str("imp_uid", req.ImpUID).
				Str("merchant_uid", req.MerchantUID).
				Msg("webhook verify")
		}
	}()

	return c.JSON(http.StatusOK, SuccessResponse{Message: "ok"})
}

// クライアント側の決済完了後の照会経路。こちらはエラーを返す。
func (h *PaymentHandler) complete(c echo.Context) error {
	if _, ok := getUserIDFromContext(c); !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req WebhookRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	if err := h.uc.VerifyPayment(c.Request().Context(), req.ImpUID, req.MerchantUID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "ok"})
}
