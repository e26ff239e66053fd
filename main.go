package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/angiarxpharma-alt/Certificate-Upload/config"
	"github.com/angiarxpharma-alt/Certificate-Upload/handler"
	"github.com/angiarxpharma-alt/Certificate-Upload/middleware"
	"github.com/angiarxpharma-alt/Certificate-Upload/pkg/logger"
	"github.com/angiarxpharma-alt/Certificate-Upload/service"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	slog.Info("configuration loaded successfully")

	// Initialize blob storage
	minioSvc, err := service.NewMinioService(&cfg.Minio)
	if err != nil {
		slog.Error("failed to initialize MINIO service", "error", err)
		os.Exit(1)
	}
	if err := minioSvc.EnsureBucket(context.Background()); err != nil {
		slog.Error("failed to ensure MINIO bucket", "error", err)
		os.Exit(1)
	}

	// Initialize document and account store
	var (
		clientStore  service.ClientStore
		accountStore service.AccountStore
		sqliteStore  *service.SQLiteStore
	)
	switch cfg.Store.Driver {
	case "sqlite":
		sqliteStore, err = service.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			slog.Error("failed to open sqlite store", "error", err, "path", cfg.Store.Path)
			os.Exit(1)
		}
		clientStore = sqliteStore
		accountStore = sqliteStore
		slog.Info("using sqlite store", "path", cfg.Store.Path)
	default:
		memStore := service.NewMemoryStore()
		clientStore = memStore
		accountStore = memStore
		slog.Info("using in-memory store")
	}

	clientSvc := service.NewClientService(clientStore, minioSvc)

	// Auto-save worker persists completed uploads in the background; its
	// outcomes are drained here so failures land in the central log.
	autoSaver := service.NewAutoSaver(clientSvc, 64)
	autoSaver.Start()
	go func() {
		for result := range autoSaver.Results() {
			if result.Err != nil {
				slog.Error("auto-save failed",
					"client_id", result.ClientID,
					"certificate_id", result.CertificateID,
					"error", result.Err)
			}
		}
	}()

	uploadSvc := service.NewUploadCoordinator(minioSvc, autoSaver, cfg.Upload.MaxFileSizeBytes())

	// Initialize handlers
	authHandler := handler.NewAuthHandler(accountStore, cfg)
	clientHandler := handler.NewClientHandler(clientSvc)
	uploadHandler := handler.NewUploadHandler(uploadSvc)
	dashboardHandler := handler.NewDashboardHandler(clientSvc)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New() // Use New() instead of Default() to avoid default middleware

	// Add custom middleware
	router.Use(middleware.RequestID())                 // Request ID for tracing
	router.Use(middleware.Recovery())                  // Panic recovery
	router.Use(middleware.RequestLogger())             // Access logging
	router.Use(corsMiddleware())                       // CORS
	router.Use(cacheMiddleware())                      // Cache control
	router.Use(middleware.RateLimit(100, time.Minute)) // Rate limiting: 100 requests per minute

	// Serve the admin UI when a static directory is configured
	if cfg.Server.StaticDir != "" {
		slog.Info("serving static files", "directory", cfg.Server.StaticDir)
		router.Static("/static", cfg.Server.StaticDir)
		router.StaticFile("/", filepath.Join(cfg.Server.StaticDir, "index.html"))
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	// Public routes
	api := router.Group("/api")
	{
		api.POST("/auth/login", authHandler.Login)
	}

	// Protected routes
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(&cfg.Auth))
	{
		protected.GET("/auth/me", authHandler.GetCurrentUser)

		protected.GET("/dashboard", dashboardHandler.Get)

		protected.POST("/clients", clientHandler.Create)
		protected.GET("/clients", clientHandler.List)
		protected.GET("/clients/:id", clientHandler.Get)
		protected.PUT("/clients/:id", clientHandler.Update)
		protected.DELETE("/clients/:id", clientHandler.Delete)
		protected.DELETE("/clients/:id/certificates/:category/:certId", clientHandler.DeleteCertificate)

		protected.POST("/uploads", uploadHandler.Submit)
		protected.GET("/uploads/:id", uploadHandler.Get)
		protected.DELETE("/uploads/:id", uploadHandler.Delete)
	}

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	autoSaver.Stop()
	if sqliteStore != nil {
		if err := sqliteStore.Close(); err != nil {
			slog.Error("failed to close sqlite store", "error", err)
		}
	}

	slog.Info("server exited gracefully")
}

// corsMiddleware handles CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// cacheMiddleware sets cache control headers for static files
func cacheMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		// Skip caching for API routes
		if strings.HasPrefix(path, "/api") {
			c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
			c.Next()
			return
		}

		// Set cache headers for static files (1 hour)
		if strings.HasSuffix(path, ".js") ||
			strings.HasSuffix(path, ".css") ||
			strings.HasSuffix(path, ".html") ||
			path == "/" {
			c.Header("Cache-Control", "public, max-age=3600, must-revalidate")
		}

		c.Next()
	}
}
