package router

import (
	"github.com/gin-gonic/gin"

	"github.com/gigwork/backend/internal/config"
	"github.com/gigwork/backend/internal/http/handlers"
	"github.com/gigwork/backend/internal/http/middleware"
	"github.com/gigwork/backend/internal/models"
	"github.com/gigwork/backend/internal/service"
)

// SetupRouter собирает все маршруты приложения.
func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	profileHandler *handlers.ProfileHandler,
	jobHandler *handlers.JobHandler,
	offerHandler *handlers.OfferHandler,
	paymentHandler *handlers.PaymentHandler,
	commissionHandler *handlers.CommissionHandler,
	notificationHandler *handlers.NotificationHandler,
	statsHandler *handlers.StatsHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.POST("/logout", authHandler.Logout)
	}

	// Публичные маршруты
	api.GET("/ws", wsHandler.Handle)
	api.GET("/stats", statsHandler.GetPlatformStats)

	// Callback платёжного шлюза: без авторизации, подпись проверяется внутри.
	api.POST("/payments/callback", paymentHandler.Callback)

	// Маршруты клиента
	client := api.Group("/client")
	client.Use(middleware.AuthMiddleware(tokenManager), middleware.RequireRole(models.RoleClient))
	{
		client.POST("/profile", profileHandler.UpsertClientProfile)
		client.GET("/profile", profileHandler.GetClientProfile)

		client.POST("/jobs", jobHandler.Create)
		client.GET("/jobs", jobHandler.ListClientJobs)
		client.GET("/jobs/:id/offers", middleware.UUIDValidator("id"), offerHandler.ListByJob)
		client.POST("/jobs/:id/cancel", middleware.UUIDValidator("id"), jobHandler.Cancel)

		client.POST("/offers/:id/respond", middleware.UUIDValidator("id"), offerHandler.Respond)

		client.POST("/jobs/:id/pay", middleware.UUIDValidator("id"), paymentHandler.PayWallet)
		client.POST("/jobs/:id/pay-cash", middleware.UUIDValidator("id"), paymentHandler.PayCash)
		client.POST("/jobs/:id/pay-phonepe", middleware.UUIDValidator("id"), paymentHandler.PayGateway)

		client.GET("/transactions", paymentHandler.ListTransactions)
	}

	// Маршруты фрилансера
	freelancer := api.Group("/freelancer")
	freelancer.Use(middleware.AuthMiddleware(tokenManager), middleware.RequireRole(models.RoleFreelancer))
	{
		freelancer.POST("/profile", profileHandler.SubmitFreelancerProfile)
		freelancer.GET("/profile", profileHandler.GetFreelancerProfile)
		freelancer.POST("/profile/resubmit", profileHandler.ResubmitFreelancerProfile)
		freelancer.GET("/verification-status", profileHandler.GetVerificationStatus)

		freelancer.GET("/jobs/available", jobHandler.ListAvailable)
		freelancer.GET("/jobs/assigned", jobHandler.ListAssigned)
		freelancer.GET("/jobs/active-status", jobHandler.GetActiveStatus)
		freelancer.POST("/jobs/:id/apply", middleware.UUIDValidator("id"), offerHandler.Apply)
		freelancer.POST("/jobs/:id/work-done", middleware.UUIDValidator("id"), jobHandler.MarkWorkDone)
		freelancer.POST("/jobs/:id/complete", middleware.UUIDValidator("id"), jobHandler.Complete)
		freelancer.POST("/jobs/:id/cancel", middleware.UUIDValidator("id"), jobHandler.Cancel)

		freelancer.GET("/offers", offerHandler.ListMine)
		freelancer.POST("/offers/:id/withdraw", middleware.UUIDValidator("id"), offerHandler.Withdraw)

		freelancer.GET("/wallet", paymentHandler.GetWallet)
		freelancer.POST("/withdraw", paymentHandler.Withdraw)
		freelancer.GET("/transactions", paymentHandler.ListTransactions)

		freelancer.GET("/commission-ledger", commissionHandler.GetLedger)
		freelancer.POST("/commission-ledger/clear-due", commissionHandler.ClearDue)
		freelancer.GET("/can-work", commissionHandler.CanWork)
	}

	// Уведомления: доступны обеим ролям.
	notifications := api.Group("/notifications")
	notifications.Use(middleware.AuthMiddleware(tokenManager))
	{
		notifications.GET("", notificationHandler.List)
		notifications.GET("/unread-count", notificationHandler.CountUnread)
		notifications.POST("/read-all", notificationHandler.MarkAllAsRead)
		notifications.POST("/:id/read", middleware.UUIDValidator("id"), notificationHandler.MarkAsRead)
	}

	return r
}
