package main

import (
	"context"
	"os"
	"time"

	"market/internal/config"
	"market/internal/domain/model"
	"market/internal/event"
	"market/internal/handler"
	"market/internal/infra/db"
	"market/internal/infra/portone"
	infraRepo "market/internal/infra/repository"
	"market/internal/server"
	"market/internal/sse"
	"market/internal/usecase"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "main").Logger()

// portoneのレスポンスをusecase側の形に詰め替えるアダプタ
type portoneGateway struct {
	client *portone.Client
}

func (g *portoneGateway) LookupPayment(ctx context.Context, impUID string) (usecase.GatewayPayment, error) {
	rec, err := g.client.LookupPayment(ctx, impUID)
	if err != nil {
		return usecase.GatewayPayment{}, err
	}
	return usecase.GatewayPayment{
		Status:      rec.Status,
		MerchantUID: rec.MerchantUID,
		ImpUID:      rec.ImpUID,
		Amount:      rec.Amount,
		PgTid:       rec.PgTid,
		FailReason:  rec.FailReason,
	}, nil
}

func main() {
	//.envはローカル開発用。本番は環境変数で渡すので無くてもよい
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	//DB接続
	gormDB, err := db.Connect()
	if err != nil {
		logger.Fatal().Err(err).Msg("connect db")
	}
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Grade{},
		&model.Product{},
		&model.Size{},
		&model.Stock{},
		&model.Order{},
		&model.OrderItem{},
		&model.Payment{},
		&model.PointHistory{},
		&model.Notification{},
		&model.Cart{},
		&model.CartItem{},
	); err != nil {
		logger.Fatal().Err(err).Msg("migrate")
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	gradeRepo := infraRepo.NewGradeGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	paymentRepo := infraRepo.NewPaymentGormRepository(gormDB)
	pointHistRepo := infraRepo.NewPointHistoryGormRepository(gormDB)
	notificationRepo := infraRepo.NewNotificationGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	//SSEハブ。Redisがあればインスタンス跨ぎでも届く
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}
	hub := sse.NewHub(rdb)
	go hub.Run(ctx)

	//イベント発行。ブローカー未設定なら何もしない実装に差し替える
	var events event.Publisher = event.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := event.NewKafkaPublisher(cfg.KafkaBrokers, 256)
		kp.Start(ctx)
		events = kp
	}

	//決済ゲートウェイ
	gateway := &portoneGateway{client: portone.NewClient(portone.Config{
		BaseURL:   cfg.PortOneBaseURL,
		APIKey:    cfg.PortOneAPIKey,
		APISecret: cfg.PortOneAPISecret,
	})}

	//Usecase生成
	gradeUC := usecase.NewGradeUsecase(orderRepo, gradeRepo, userRepo)
	orderUC := usecase.NewOrderUsecase(txManager, userRepo, gradeUC, events)
	paymentUC := usecase.NewPaymentUsecase(
		txManager,
		paymentRepo,
		orderRepo,
		userRepo,
		notificationRepo,
		gateway,
		hub,
		gradeUC,
		events,
	)
	expiryUC := usecase.NewExpiryUsecase(txManager, orderRepo, events)
	notificationUC := usecase.NewNotificationUsecase(notificationRepo)
	pointUC := usecase.NewPointUsecase(userRepo, pointHistRepo)

	//期限切れ注文の回収ループ
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := expiryUC.ExpireWaitingOrders(ctx)
				if err != nil {
					logger.Error().Err(err).Msg("expire sweep")
				}
				if n > 0 {
					logger.Info().Int("count", n).Msg("expired orders")
				}
			}
		}
	}()

	//Handler生成
	h := server.Handlers{
		Order:        handler.NewOrderHandler(orderUC),
		Payment:      handler.NewPaymentHandler(paymentUC),
		Notification: handler.NewNotificationHandler(notificationUC, hub),
		Point:        handler.NewPointHandler(pointUC),
	}

	//Server起動
	e := server.New()
	server.RegisterRoutes(e, cfg, h)
	if err := server.Start(e, cfg.Port); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
