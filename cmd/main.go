package main

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"ledger-service/internal/cache"
	"ledger-service/internal/handler"
	"ledger-service/internal/middleware"
	"ledger-service/internal/model"
	"ledger-service/pkg/config"
	"ledger-service/pkg/database"
	"ledger-service/pkg/jwtutil"
	"ledger-service/pkg/logger"
	"ledger-service/pkg/storage"
	"ledger-service/prometheus"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load("ledger-service")
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	if err := logger.InitLogger(&logger.LogConfig{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		ServiceName: cfg.ServiceName,
	}); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	log.Info("Starting ledger service...", cfg.LogConfig()...)

	// Initialize database
	if _, err := database.InitDB(&cfg.DB); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	if err := database.MigrateModels(
		&model.Organization{},
		&model.User{},
		&model.FinancialLog{},
		&model.LogItem{},
		&model.Attachment{},
	); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}
	log.Info("Database connection established")

	// Initialize JWT utility
	jwtUtil := jwtutil.NewJWTUtil(cfg.JWT.SigningKey, cfg.JWT.ExpirationHours)

	// Object storage is optional; attachments are disabled without it
	var objectStore *storage.ObjectStore
	if cfg.S3.Enabled() {
		objectStore, err = storage.New(&cfg.S3)
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		log.Info("Object storage initialized", zap.String("bucket", cfg.S3.Bucket))
	} else {
		log.Warn("Object storage not configured, attachments disabled")
	}

	// Report cache is optional; a nil cache recomputes every request
	reportCache := cache.New(&cfg.Redis, log)
	if reportCache != nil {
		log.Info("Report cache initialized", zap.String("addr", cfg.Redis.Addr))
	}

	handler.Init(jwtUtil, objectStore, reportCache)

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware())
	e.Use(logger.Middleware())
	e.Use(prometheus.Middleware())

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(prometheus.GetPrometheusHandler()))

	auth := e.Group("/auth")
	auth.POST("/login", handler.Login)

	// API routes - all require authentication
	api := e.Group("/api")
	api.Use(middleware.JWTAuthMiddleware(jwtUtil))

	authAPI := api.Group("/auth")
	authAPI.GET("/me", handler.Me)
	authAPI.POST("/register", handler.Register)
	authAPI.POST("/change-password", handler.ChangePassword)

	orgs := api.Group("/organizations")
	orgs.GET("", handler.ListOrganizations)
	orgs.POST("", handler.CreateOrganization)
	orgs.GET("/:id", handler.GetOrganization)
	orgs.PUT("/:id", handler.UpdateOrganization)
	orgs.DELETE("/:id", handler.DeleteOrganization)
	orgs.GET("/:id/users", handler.ListOrganizationUsers)
	orgs.POST("/:id/logo", handler.UploadOrganizationLogo)

	users := api.Group("/users")
	users.GET("", handler.ListUsers)
	users.GET("/:id", handler.GetUser)
	users.PUT("/:id", handler.UpdateUser)
	users.DELETE("/:id", handler.DeleteUser)

	logs := api.Group("/logs")
	logs.GET("", handler.ListLogs)
	logs.POST("", handler.CreateLog)
	logs.GET("/:id", handler.GetLog)
	logs.PUT("/:id", handler.UpdateLog)
	logs.DELETE("/:id", handler.DeleteLog)
	logs.POST("/:id/restore", handler.RestoreLog)
	logs.POST("/:id/attachments", handler.UploadAttachment)
	logs.DELETE("/:id/attachments/:attachmentId", handler.DeleteAttachment)

	dashboard := api.Group("/dashboard")
	dashboard.GET("/stats", handler.DashboardStats)
	dashboard.GET("/feed", handler.DashboardFeed)
	dashboard.GET("/chart", handler.DashboardChart)
	dashboard.GET("/summary", handler.DashboardSummary)
	dashboard.GET("/rankings", handler.DashboardRankings)
	dashboard.GET("/comparison", handler.DashboardComparison)
	dashboard.GET("/insights", handler.DashboardInsights)
	dashboard.GET("/export", handler.DashboardExport)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
