// internal/router/router.go
package router

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/javajoker/artisans-backend/internal/clients/ai"
	"github.com/javajoker/artisans-backend/internal/clients/cobre"
	"github.com/javajoker/artisans-backend/internal/config"
	"github.com/javajoker/artisans-backend/internal/events"
	"github.com/javajoker/artisans-backend/internal/handlers"
	"github.com/javajoker/artisans-backend/internal/middleware"
	"github.com/javajoker/artisans-backend/internal/missions"
	"github.com/javajoker/artisans-backend/internal/models"
	"github.com/javajoker/artisans-backend/internal/progress"
	"github.com/javajoker/artisans-backend/internal/services"
	"github.com/javajoker/artisans-backend/internal/state"
	"github.com/javajoker/artisans-backend/internal/taskgen"
	"github.com/javajoker/artisans-backend/internal/utils"
)

const version = "1.0.0"

// App is the wired HTTP engine plus the background engines behind it.
type App struct {
	Engine *gin.Engine
	Bus    *events.Bus

	trigger *taskgen.Trigger
	tracker *progress.Tracker
	bridge  *events.RedisBridge
	unsubs  []func()
	cancel  context.CancelFunc
}

// Initialize builds every service and registers the routes. rdb may be nil,
// in which case state, limits and events stay in process.
func Initialize(db *gorm.DB, rdb *redis.Client, cfg *config.Config) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{Bus: events.NewBus(), cancel: cancel}

	var (
		store   state.Store
		limiter services.Limiter
	)
	if rdb != nil {
		store = state.NewRedisStore(rdb, cfg.Redis.StateTTL)
		limiter = services.NewRedisLimiter(rdb)
		app.bridge = events.NewRedisBridge(app.Bus, rdb, cfg.Redis.Channel)
		if err := app.bridge.Start(ctx); err != nil {
			logrus.WithError(err).Warn("Redis event bridge disabled")
			app.bridge = nil
		}
	} else {
		store = state.NewMemoryStore()
		limiter = services.NewMemoryLimiter()
	}

	catalog, err := missions.Load()
	if err != nil {
		cancel()
		return nil, err
	}
	storageService, err := services.NewStorageService(cfg)
	if err != nil {
		cancel()
		return nil, err
	}

	aiClient := ai.NewClient(cfg.AI)
	cobreClient := cobre.NewClient(cfg.Cobre)

	emailService := services.NewEmailService(cfg)
	authorizationService := services.NewAuthorizationService(db)
	notificationService := services.NewNotificationService(db, cfg, emailService)
	progressService := services.NewUserProgressService(db, app.Bus)
	progressSource := services.NewProgressSource(db)

	app.tracker = progress.NewTracker(progressSource, store, app.Bus, progress.TrackerOptions{
		Debounce:            cfg.Engine.ProgressDebounce,
		AlmostCompleteRatio: cfg.Engine.AlmostCompleteRatio,
	})
	app.tracker.Start()

	evolver := services.NewTaskEvolver(db, aiClient, catalog, progressSource, app.Bus)
	app.trigger = taskgen.NewTrigger(evolver, store, taskgen.Options{
		Cooldown:          cfg.Engine.GenerationCooldown,
		Debounce:          cfg.Engine.GenerationDebounce,
		MinPending:        cfg.Engine.MinPendingTasks,
		RecentCompletions: cfg.Engine.RecentCompletions,
		RecentWindow:      cfg.Engine.RecentWindow,
		OnTasksGenerated:  refreshProgress(app.tracker),
	})

	authService := services.NewAuthService(db, cfg, emailService, limiter, store, authorizationService)
	shopService := services.NewShopService(db, cfg, app.Bus, authorizationService, notificationService)
	productService := services.NewProductService(db, app.Bus, shopService, storageService)
	moderationService := services.NewModerationService(db, cfg, app.Bus, notificationService, emailService)
	taskService := services.NewTaskService(db, app.Bus, progressService, app.trigger)
	userService := services.NewUserService(db, storageService, app.Bus, progressService, progressSource, catalog, app.tracker, store)
	bankService := services.NewBankService(db, cobreClient, app.Bus)
	contentService := services.NewContentService(aiClient)
	paymentService := services.NewPaymentService(db, cfg, services.NewStripeGateway(cfg.Payment), app.Bus)
	adminService := services.NewAdminService(db, authorizationService)

	app.unsubs = append(app.unsubs, notificationService.Subscribe(app.Bus))

	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	progressHandler := handlers.NewProgressHandler(userService, progressService)
	shopHandler := handlers.NewShopHandler(shopService, productService)
	productHandler := handlers.NewProductHandler(productService)
	moderationHandler := handlers.NewModerationHandler(moderationService)
	taskHandler := handlers.NewTaskHandler(taskService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	bankHandler := handlers.NewBankHandler(bankService, paymentService, shopService)
	contentHandler := handlers.NewContentHandler(contentService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	adminHandler := handlers.NewAdminHandler(adminService)
	uploadHandler := handlers.NewUploadHandler(storageService)

	utils.SetJWTSecret(cfg.JWT.SecretKey)

	limiters := middleware.DefaultLimiters()
	limiters.Run(ctx)

	r := gin.New()

	r.Use(gin.Recovery())
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.Frontend.AllowedOrigins))
	r.Use(middleware.I18nMiddleware())
	r.Use(limiters.General.Middleware())
	r.Use(middleware.AuditLogMiddleware(db))

	r.GET("/health", func(c *gin.Context) {
		status := http.StatusOK
		dbStatus := "ok"
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status = http.StatusServiceUnavailable
			dbStatus = "unavailable"
		}
		c.JSON(status, gin.H{
			"status":   http.StatusText(status),
			"version":  version,
			"database": dbStatus,
		})
	})

	moderators := middleware.RoleRequired(authorizationService, models.RoleModerator)
	admins := middleware.RoleRequired(authorizationService, models.RoleAdmin)

	v1 := r.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		auth.Use(limiters.Auth.Middleware())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", middleware.AuthRequired(), authHandler.Logout)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.POST("/forgot-password", authHandler.ForgotPassword)
			auth.POST("/reset-password", authHandler.ResetPassword)
			auth.GET("/verify-email/:token", authHandler.VerifyEmail)
			auth.POST("/resend-verification", authHandler.ResendVerification)
			auth.POST("/otp/send", authHandler.SendOTP)
			auth.POST("/otp/verify", authHandler.VerifyOTP)
			auth.GET("/me", middleware.AuthRequired(), authHandler.Me)
		}

		users := v1.Group("/users")
		users.Use(middleware.AuthRequired())
		{
			users.PUT("/profile", userHandler.UpdateProfile)
			users.POST("/avatar", limiters.Upload.Middleware(), userHandler.UploadAvatar)
			users.DELETE("/account", userHandler.DeleteAccount)
			users.GET("/master-context", userHandler.GetMasterContext)
			users.PUT("/master-context", userHandler.UpdateMasterContext)
			users.GET("/maturity", userHandler.GetMaturity)
			users.POST("/maturity", userHandler.SaveMaturity)
		}

		prog := v1.Group("/progress")
		prog.Use(middleware.AuthRequired())
		{
			prog.GET("", progressHandler.Get)
			prog.POST("", progressHandler.Add)
			prog.GET("/unified", progressHandler.Unified)
			prog.GET("/achievements", progressHandler.Achievements)
			prog.GET("/missions", progressHandler.Missions)
		}

		shops := v1.Group("/shops")
		{
			shops.GET("", shopHandler.ListShops)
			shops.GET("/me", middleware.AuthRequired(), shopHandler.GetMyShop)
			shops.POST("", middleware.AuthRequired(), shopHandler.CreateShop)
			shops.PUT("/me", middleware.AuthRequired(), shopHandler.UpdateShop)
			shops.POST("/me/publish", middleware.AuthRequired(), shopHandler.PublishShop)
			shops.GET("/s/:slug", middleware.OptionalAuth(), shopHandler.GetShop)
			shops.GET("/s/:slug/products", middleware.OptionalAuth(), shopHandler.GetShopProducts)
		}

		products := v1.Group("/products")
		{
			products.GET("", productHandler.GetProducts)
			products.GET("/category/:category", productHandler.GetProducts)
			products.GET("/mine", middleware.AuthRequired(), productHandler.GetMyProducts)
			products.GET("/:id", middleware.OptionalAuth(), productHandler.GetProduct)

			protected := products.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.POST("", productHandler.CreateProduct)
				protected.PUT("/:id", productHandler.UpdateProduct)
				protected.DELETE("/:id", productHandler.ArchiveProduct)
				protected.POST("/:id/submit", productHandler.SubmitProduct)
				protected.POST("/:id/images", limiters.Upload.Middleware(), productHandler.UploadProductImage)
				protected.DELETE("/:id/images", productHandler.RemoveProductImage)
			}
		}

		moderation := v1.Group("/moderation")
		moderation.Use(middleware.AuthRequired(), moderators)
		{
			moderation.GET("/products", moderationHandler.Queue)
			moderation.GET("/products/:id/history", moderationHandler.History)
			moderation.POST("/products/:id", moderationHandler.Moderate)
		}

		tasks := v1.Group("/tasks")
		tasks.Use(middleware.AuthRequired())
		{
			tasks.GET("", taskHandler.List)
			tasks.POST("", taskHandler.Create)
			tasks.GET("/:id", taskHandler.Get)
			tasks.PATCH("/:id", taskHandler.Update)
			tasks.POST("/:id/complete", taskHandler.Complete)
			tasks.DELETE("/:id", taskHandler.Archive)
		}

		notifications := v1.Group("/notifications")
		notifications.Use(middleware.AuthRequired())
		{
			notifications.GET("", notificationHandler.List)
			notifications.GET("/unread-count", notificationHandler.UnreadCount)
			notifications.PUT("/read-all", notificationHandler.MarkAllRead)
			notifications.PUT("/:id/read", notificationHandler.MarkRead)
			notifications.DELETE("/:id", notificationHandler.Dismiss)
		}

		bank := v1.Group("/bank")
		bank.Use(middleware.AuthRequired())
		{
			bank.GET("/status", bankHandler.Status)
			bank.POST("/counterparty", bankHandler.Register)
			bank.GET("/balance", bankHandler.ShopBalance)
		}

		v1.POST("/ai/refine", middleware.AuthRequired(), contentHandler.Refine)
		v1.POST("/uploads", middleware.AuthRequired(), limiters.Upload.Middleware(), uploadHandler.Upload)

		cart := v1.Group("/cart")
		cart.Use(middleware.AuthRequired())
		{
			cart.GET("", paymentHandler.GetCart)
			cart.POST("/items", paymentHandler.AddItem)
			cart.DELETE("/items/:id", paymentHandler.RemoveItem)
		}
		v1.POST("/checkout", middleware.AuthRequired(), paymentHandler.Checkout)
		v1.GET("/checkout/:id", middleware.AuthRequired(), paymentHandler.GetCheckout)
		v1.POST("/webhooks/stripe", paymentHandler.StripeWebhook)

		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), admins)
		{
			admin.GET("/dashboard/stats", adminHandler.GetDashboardStats)

			admin.GET("/users", adminHandler.GetUsers)
			admin.PUT("/users/:id/ban", adminHandler.BanUser)
			admin.POST("/users/:id/roles", adminHandler.GrantRole)
			admin.DELETE("/users/:id/roles/:role", adminHandler.RevokeRole)
			admin.GET("/roles/:role", adminHandler.ListRole)

			admin.GET("/shops", shopHandler.ListForApproval)
			admin.PUT("/shops/:id/approve", shopHandler.ApproveShop)
			admin.PUT("/shops/:id/reject", shopHandler.RejectShop)
			admin.POST("/shops/:id/counterparty", bankHandler.RegisterForShop)
			admin.GET("/bank/balance", bankHandler.PlatformBalance)

			admin.GET("/settings", adminHandler.GetSettings)
			admin.PUT("/settings", adminHandler.UpdateSettings)
			admin.GET("/audit-logs", adminHandler.AuditLogs)
		}
	}

	if cfg.Storage.Driver == "local" || cfg.Storage.Driver == "" {
		r.Static("/uploads", cfg.Storage.LocalPath)
	}

	app.Engine = r
	return app, nil
}

type progressScheduler interface {
	Schedule(userID uuid.UUID)
}

// refreshProgress recomputes unified progress once new tasks exist, so
// milestone task counts include them.
func refreshProgress(tracker progressScheduler) func(uuid.UUID, []models.AgentTask) {
	return func(userID uuid.UUID, tasks []models.AgentTask) {
		if len(tasks) == 0 {
			return
		}
		tracker.Schedule(userID)
	}
}

// Shutdown stops the engines and background loops. Pending debounce timers
// are cancelled.
func (a *App) Shutdown() {
	a.trigger.Stop()
	a.tracker.Stop()
	for _, unsub := range a.unsubs {
		unsub()
	}
	a.cancel()
	if a.bridge != nil {
		<-a.bridge.Done()
	}
}
