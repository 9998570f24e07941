package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"olza-admin/internal/admin"
	"olza-admin/internal/api/handlers"
	"olza-admin/internal/api/middleware"
	"olza-admin/internal/auth"
	"olza-admin/internal/config"
	"olza-admin/internal/database"
	"olza-admin/internal/events"
	"olza-admin/internal/logger"
	"olza-admin/internal/models"
	"olza-admin/internal/services/pickup"
	"olza-admin/internal/settings"

	"github.com/gin-gonic/gin"
)

// Paths of the two sync actions, also handed to the settings page script.
const (
	AvailableOptionsPath = "/api/v1/admin/available-options"
	PickupPointFilesPath = "/api/v1/admin/pickup-point-files"
)

// writeTimeout covers a pickup point refresh, which answers only after every
// download finished.
const writeTimeout = 30 * time.Minute

type Server struct {
	config *config.Config
	logger *logger.Logger
	db     *database.Database
	router *gin.Engine
	server *http.Server
}

func New(cfg *config.Config, logger *logger.Logger, db *database.Database, publisher events.Publisher) (*Server, error) {
	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	renderer, err := admin.NewRenderer()
	if err != nil {
		return nil, err
	}

	router := gin.New()

	// Middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS(cfg.AllowedOrigins))

	store := settings.NewStore(db.DB, logger)
	users := auth.NewService(db.DB, logger)
	tokens := auth.NewManager(cfg.JWTSecret, cfg.SessionTTL, cfg.NonceTTL)
	pickupService := pickup.NewFromConfig(cfg, publisher, logger)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(db)
	authHandler := handlers.NewAuthHandler(users, tokens, cfg.SessionTTL, cfg.IsProduction(), logger)
	syncHandler := handlers.NewSyncHandler(store, pickupService, logger)
	settingsHandler := handlers.NewSettingsHandler(store, logger)
	feeHandler := handlers.NewFeeHandler(store, logger)
	pageHandler := handlers.NewAdminPageHandler(renderer, store, users, tokens, admin.Endpoints{
		Options: AvailableOptionsPath,
		Refresh: PickupPointFilesPath,
	}, cfg.SessionTTL, cfg.IsProduction(), logger)

	canManage := middleware.RequireCapability(models.CapManageWooCommerce, models.CapManageOptions)

	router.GET("/healthz", healthHandler.Check)

	// Browser admin
	router.GET(handlers.ScriptPath, pageHandler.Script)
	router.GET(handlers.LoginPath, pageHandler.LoginForm)
	router.POST(handlers.LoginPath, pageHandler.Login)
	router.POST(handlers.LogoutPath, pageHandler.Logout)
	pages := router.Group("", middleware.PageSession(tokens, handlers.LoginPath))
	{
		pages.GET(handlers.SettingsPath, pageHandler.Settings)
		pages.POST(handlers.SettingsPath, pageHandler.Save)
	}

	// Routes
	v1 := router.Group("/api/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/login", authHandler.Login)
			authGroup.GET("/request-token", middleware.Session(tokens), authHandler.RequestToken)
		}

		adminGroup := v1.Group("/admin", middleware.Session(tokens))
		{
			sync := adminGroup.Group("", middleware.RequestToken(tokens, auth.ActionLoadFiles), canManage)
			sync.POST("/available-options", syncHandler.AvailableOptions)
			sync.POST("/pickup-point-files", syncHandler.PickupPointFiles)

			adminGroup.GET("/settings", canManage, settingsHandler.Get)
			adminGroup.PUT("/settings", middleware.RequestToken(tokens, auth.ActionSaveSettings), canManage, settingsHandler.Update)

			adminGroup.GET("/fees/quote", canManage, feeHandler.Quote)
		}
	}

	return &Server{
		config: cfg,
		logger: logger,
		db:     db,
		router: router,
	}, nil
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%s", s.config.APIHost, s.config.APIPort)

	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}

	s.logger.Info("Starting server on " + addr)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}
