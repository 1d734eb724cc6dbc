package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gigwork/backend/internal/config"
	"github.com/gigwork/backend/internal/db"
	"github.com/gigwork/backend/internal/gateway"
	"github.com/gigwork/backend/internal/goroutine"
	httpHandlers "github.com/gigwork/backend/internal/http/handlers"
	httpRouter "github.com/gigwork/backend/internal/http/router"
	"github.com/gigwork/backend/internal/logger"
	"github.com/gigwork/backend/internal/repository"
	"github.com/gigwork/backend/internal/service"
	"github.com/gigwork/backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	if cfg.Env == "development" {
		logger.Init("debug")
		logger.SetTextFormatter()
	} else {
		logger.Init("info")
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	// Вспомогательные компоненты.
	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	gatewayClient := gateway.NewClient(
		cfg.GatewayBaseURL,
		cfg.GatewayMerchantID,
		cfg.GatewaySaltKey,
		strconv.Itoa(cfg.GatewaySaltIndex),
		cfg.GatewayRedirectURL,
		cfg.GatewayCallbackURL,
	)

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	jobRepo := repository.NewJobRepository(dbConn)
	offerRepo := repository.NewOfferRepository(dbConn)
	ledgerRepo := repository.NewLedgerRepository(dbConn)
	paymentRepo := repository.NewPaymentRepository(dbConn)
	notificationRepo := repository.NewNotificationRepository(dbConn)
	statsRepo := repository.NewStatsRepository(dbConn)

	// Вебсокеты.
	hub := ws.NewHub()
	goroutine.SafeGo(hub.Run)

	// Сервисы.
	notificationService := service.NewNotificationService(notificationRepo, hub)
	authService := service.NewAuthService(userRepo, tokenManager)
	profileService := service.NewProfileService(userRepo)
	commissionService := service.NewCommissionService(ledgerRepo, cfg.CommissionThreshold)
	jobService := service.NewJobService(jobRepo, userRepo)
	offerService := service.NewOfferService(offerRepo, jobRepo, userRepo, commissionService, notificationService)
	paymentService := service.NewPaymentService(paymentRepo, jobRepo, userRepo, gatewayClient, notificationService, cfg.CommissionRate, cfg.CommissionDueDays)
	statsService := service.NewStatsService(statsRepo, service.NewCacheService())

	// Фоновая чистка просроченных сессий.
	goroutine.SafeGoWithContext(ctx, func(ctx context.Context) {
		cleanupExpiredSessions(ctx, userRepo)
	})

	// HTTP хэндлеры.
	authHandler := httpHandlers.NewAuthHandler(authService)
	profileHandler := httpHandlers.NewProfileHandler(profileService)
	jobHandler := httpHandlers.NewJobHandler(jobService)
	offerHandler := httpHandlers.NewOfferHandler(offerService)
	paymentHandler := httpHandlers.NewPaymentHandler(paymentService)
	commissionHandler := httpHandlers.NewCommissionHandler(commissionService)
	notificationHandler := httpHandlers.NewNotificationHandler(notificationService)
	statsHandler := httpHandlers.NewStatsHandler(statsService)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, authHandler, profileHandler, jobHandler, offerHandler, paymentHandler, commissionHandler, notificationHandler, statsHandler, wsHandler, healthHandler, tokenManager)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// cleanupExpiredSessions раз в час удаляет протухшие refresh-сессии.
func cleanupExpiredSessions(ctx context.Context, repo *repository.UserRepository) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := repo.DeleteExpiredSessions(ctx)
			if err != nil {
				logger.Log.WithError(err).Warn("main: не удалось очистить просроченные сессии")
				continue
			}
			if deleted > 0 {
				logger.Log.WithField("deleted", deleted).Info("main: просроченные сессии удалены")
			}
		}
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
