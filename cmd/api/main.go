package main

import (
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"callcrm-backend/internal/auth"
	"callcrm-backend/internal/bootstrap"
	"callcrm-backend/internal/calls"
	"callcrm-backend/internal/campaigns"
	"callcrm-backend/internal/database"
	"callcrm-backend/internal/health"
	"callcrm-backend/internal/leads"
	"callcrm-backend/internal/metrics"
	"callcrm-backend/internal/middleware"
	"callcrm-backend/internal/models"
	"callcrm-backend/internal/permissions"
	"callcrm-backend/internal/products"
	"callcrm-backend/internal/reports"
	"callcrm-backend/internal/sales"
	"callcrm-backend/internal/sessions"
	"callcrm-backend/internal/users"
)

func main() {
	log.Info("starting CallCRM API server")

	// Sentry goes first so subsystem init errors are captured
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		host, _ := os.Hostname()
		opts := sentry.ClientOptions{
			Dsn:         dsn,
			Environment: os.Getenv("SENTRY_ENVIRONMENT"),
			Release:     os.Getenv("SENTRY_RELEASE"),
		}
		if host != "" {
			opts.ServerName = host
		}
		if err := sentry.Init(opts); err != nil {
			log.WithError(err).Warn("sentry initialization failed")
		} else {
			sentry.ConfigureScope(func(scope *sentry.Scope) {
				scope.SetTag("service", "callcrm-backend")
			})
			defer sentry.Flush(2 * time.Second)
		}
	}

	if err := database.InitDatabase(); err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}

	if err := database.RunMigrations(
		&models.Profile{},
		&models.Campaign{},
		&models.Product{},
		&models.Lead{},
		&models.Call{},
		&models.Sale{},
		&models.LeadHistory{},
		&models.Permission{},
		&models.TokenBlacklist{},
	); err != nil {
		log.WithError(err).Fatal("migration failed")
	}

	bootstrap.Run(database.DB)

	auth.InitJWT()
	sessions.Init()

	// Permission table is static after seeding; load it once.
	if err := permissions.Init(database.DB); err != nil {
		log.WithError(err).Fatal("failed to load permission table")
	}

	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			auth.CleanupTokenBlacklist(database.DB)
		}
	}()

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(sentrygin.New(sentrygin.Options{
		Repanic:         true,
		WaitForDelivery: false,
		Timeout:         2 * time.Second,
	}))
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// CORS must run first to handle OPTIONS requests
	router.Use(cors.New(middleware.SecureCORSConfig()))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RequestSizeLimit(1 << 20))
	router.Use(middleware.GeneralRateLimit())
	router.Use(metrics.RequestCounter())

	router.GET("/health", health.HandleHealthCheck)
	router.GET("/metrics", metrics.PrometheusHandler())

	api := router.Group("/api/v1")
	{
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/signup", middleware.LoginRateLimit(), auth.HandleSignup)
			authRoutes.POST("/login", middleware.LoginRateLimit(), auth.HandleLogin)
		}

		protected := api.Group("")
		protected.Use(auth.Middleware(database.DB))
		{
			protected.POST("/auth/logout", auth.HandleLogout)
			protected.GET("/profile", auth.HandleGetProfile)

			protected.GET("/health", health.HandleHealthCheck)
			protected.GET("/ready", health.HandleSystemReady)
			// no role is seeded with a metrics grant, so only the admin
			// wildcard passes this gate
			protected.GET("/metrics", permissions.Require("metrics", "read"), metrics.HandleSystemMetrics)

			protected.GET("/leads", leads.HandleList)
			protected.POST("/leads", permissions.Require("leads", "create"), leads.HandleCreate)
			protected.PUT("/leads/:id", permissions.Require("leads", "update"), leads.HandleUpdate)
			protected.POST("/leads/:id/assign", permissions.Require("leads", "assign"), leads.HandleAssign)
			protected.GET("/leads/:id/history", leads.HandleHistory)

			protected.GET("/campaigns", campaigns.HandleList)
			protected.POST("/campaigns", permissions.Require("campaigns", "create"), campaigns.HandleCreate)
			protected.PUT("/campaigns/:id", permissions.Require("campaigns", "update"), campaigns.HandleUpdate)

			protected.GET("/products", products.HandleList)
			protected.POST("/products", permissions.Require("products", "create"), products.HandleCreate)

			protected.GET("/calls", calls.HandleList)
			protected.POST("/calls/start", permissions.Require("calls", "create"), calls.HandleCreate)
			protected.PUT("/calls/:id/end", permissions.Require("calls", "create"), calls.HandleEnd)

			protected.GET("/sales", sales.HandleList)
			protected.POST("/sales", permissions.Require("sales", "create"), sales.HandleCreate)
			protected.PUT("/sales/:id/validate", permissions.Require("sales", "validate"), sales.HandleValidate)

			protected.GET("/reports/daily-summary", reports.HandleDailySummary)
			protected.GET("/reports/agent-performance", permissions.Require("reports", "read"), reports.HandleAgentPerformance)

			protected.GET("/users", permissions.Require("users", "read"), users.HandleList)
			protected.PUT("/users/:id", permissions.Require("users", "update"), users.HandleUpdate)
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.WithField("port", port).Info("listening")
	if err := router.Run(":" + port); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}
