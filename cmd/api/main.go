package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-seat-booking/internal/api"
	"github.com/sanosuguru/go-seat-booking/internal/api/handler"
	custommiddleware "github.com/sanosuguru/go-seat-booking/internal/api/middleware"
	"github.com/sanosuguru/go-seat-booking/internal/application"
	"github.com/sanosuguru/go-seat-booking/internal/config"
	"github.com/sanosuguru/go-seat-booking/internal/infrastructure/postgres"
	redisinfra "github.com/sanosuguru/go-seat-booking/internal/infrastructure/redis"
	"github.com/sanosuguru/go-seat-booking/internal/infrastructure/showservice"
	"github.com/sanosuguru/go-seat-booking/internal/notification"
	"github.com/sanosuguru/go-seat-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-seat-booking/internal/pkg/metrics"
	"github.com/sanosuguru/go-seat-booking/internal/worker"
)

func main() {
	cfg := config.Load()

	// ロガー初期化
	logger.Set(logger.NewLogger(os.Getenv("APP_ENV")))
	defer logger.Sync()

	// メトリクス初期化
	m := metrics.Init()

	// PostgreSQL 接続
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		logger.Fatal("データベース接続に失敗", zap.Error(err))
	}
	defer db.Close()

	if err := postgres.RunMigrations(db.DB, "migrations"); err != nil {
		logger.Fatal("マイグレーション実行に失敗", zap.Error(err))
	}

	// Redis 接続（分散ロック・可用性キャッシュ）
	redisClient := redisinfra.NewClient(&cfg.Redis)
	defer redisClient.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisinfra.Ping(ctx, redisClient); err != nil {
		cancel()
		logger.Fatal("Redis接続に失敗", zap.Error(err))
	}
	cancel()

	lockManager := redisinfra.NewLockManager(redisClient)
	availabilityCache := redisinfra.NewAvailabilityCache(redisClient)

	// ショーサービスクライアント
	showGateway := showservice.NewClient(cfg.ShowService.BaseURL, cfg.ShowService.Timeout)

	// Kafka 通知（予約確定イベント）
	kafkaDispatcher := notification.NewKafkaDispatcher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	notifier := notification.NewAsyncNotifier(kafkaDispatcher, 256)
	defer func() {
		notifier.Close()
		if err := kafkaDispatcher.Close(); err != nil {
			logger.Error("Kafkaディスパッチャーのクローズに失敗", zap.Error(err))
		}
	}()

	// リポジトリ・サービス
	txManager := postgres.NewTxManager(db)
	lockRepo := postgres.NewSeatLockRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)

	lockService := application.NewLockService(txManager, lockRepo, bookingRepo, showGateway, lockManager, availabilityCache, cfg.Lock.TTL)
	bookingService := application.NewBookingService(txManager, bookingRepo, lockRepo, showGateway, lockManager, availabilityCache, notifier)
	availabilityService := application.NewAvailabilityService(bookingRepo, lockRepo, availabilityCache)

	// 期限切れロックの回収ワーカー
	reaper := worker.NewExpiredLockReaper(lockService, cfg.Lock.ReaperInterval)
	reaperCtx, reaperCancel := context.WithCancel(context.Background())
	go reaper.Start(reaperCtx)
	defer func() {
		reaper.Stop()
		reaperCancel()
	}()

	// Echo セットアップ
	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler

	custommiddleware.SetupMiddleware(e)
	e.Use(custommiddleware.PrometheusMiddleware(m))

	// ルート登録
	lockHandler := handler.NewLockHandler(lockService)
	bookingHandler := handler.NewBookingHandler(bookingService)
	availabilityHandler := handler.NewAvailabilityHandler(availabilityService)
	healthHandler := handler.NewHealthHandler()

	v1 := e.Group("/api/v1")
	v1.GET("/health", healthHandler.Check)
	v1.POST("/shows/:show_id/locks", lockHandler.Acquire)
	v1.DELETE("/shows/:show_id/locks", lockHandler.Release)
	v1.GET("/shows/:show_id/seats/unavailable", availabilityHandler.GetUnavailableSeats)
	v1.GET("/shows/:show_id/seats/status", availabilityHandler.GetSeatStatuses)
	v1.GET("/shows/:show_id/seats/booked", availabilityHandler.GetBookedSeats)
	v1.GET("/shows/:show_id/seats/locked", availabilityHandler.GetLockedSeats)
	v1.POST("/bookings", bookingHandler.Confirm)
	v1.GET("/bookings", bookingHandler.GetUserBookings)
	v1.GET("/bookings/:id", bookingHandler.GetByID)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), custommiddleware.MetricsBasicAuth())

	// サーバー起動
	go func() {
		addr := ":" + cfg.Server.Port
		logger.Info("サーバー起動", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("サーバー起動エラー", zap.Error(err))
		}
	}()

	// シグナル待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("サーバーをシャットダウンしています...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("サーバーシャットダウンエラー", zap.Error(err))
	}

	logger.Info("サーバーが正常にシャットダウンしました")
}
