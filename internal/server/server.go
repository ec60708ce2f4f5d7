package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"foodmart/internal/config"
	"foodmart/internal/database"
	"foodmart/internal/metrics"
	custommiddleware "foodmart/internal/middleware"
	"foodmart/internal/repository"
	"foodmart/internal/service"
	"foodmart/internal/session"
	"foodmart/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     database.Service
	redis  *redis.Client
}

func NewServer(cfg *config.Config, logger *zap.Logger, db database.Service, redisClient *redis.Client) *Server {
	s := &Server{
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
	}

	s.Server = &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      s.routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

func (s *Server) routes() http.Handler {
	cfg := s.config
	sqlDB := s.db.DB()

	router := chi.NewRouter()

	for _, mw := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	router.Use(custommiddleware.ErrorHandlingMiddleware(s.logger))
	router.Use(custommiddleware.MetricsMiddleware)
	router.Use(custommiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.IsDevelopment()))

	router.Get("/health", s.healthHandler)
	router.Handle("/metrics", metrics.Handler())

	// Initialize repositories
	userRepo := repository.NewUserRepository(sqlDB)
	refreshTokenRepo := repository.NewRefreshTokenRepository(sqlDB)
	storeRepo := repository.NewStoreRepository(sqlDB)
	categoryRepo := repository.NewCategoryRepository(sqlDB)
	brandRepo := repository.NewBrandRepository(sqlDB)
	productRepo := repository.NewProductRepository(sqlDB)
	offerRepo := repository.NewOfferRepository(sqlDB)
	listRepo := repository.NewShoppingListRepository(sqlDB)
	purchaseRepo := repository.NewPurchaseRepository(sqlDB)
	commentRepo := repository.NewCommentRepository(sqlDB)

	// Initialize services
	userService := service.NewUserService(
		userRepo,
		refreshTokenRepo,
		cfg.JWT.Secret,
		time.Duration(cfg.JWT.AccessExpiry)*time.Minute,
		time.Duration(cfg.JWT.RefreshExpiry)*24*time.Hour,
	)
	catalogService := service.NewCatalogService(productRepo, offerRepo)
	cartService := service.NewCartService(productRepo, offerRepo, listRepo, purchaseRepo)
	listService := service.NewShoppingListService(listRepo, productRepo, purchaseRepo)
	commentService := service.NewCommentService(commentRepo)
	managementService := service.NewManagementService(storeRepo, categoryRepo, brandRepo, productRepo, offerRepo)

	// Initialize handlers
	userHandler := transport.NewUserHandler(userService, cartService, s.logger)
	catalogHandler := transport.NewCatalogHandler(catalogService, s.logger)
	cartHandler := transport.NewCartHandler(cartService, s.logger)
	listHandler := transport.NewShoppingListHandler(listService, cartService, s.logger)
	commentHandler := transport.NewCommentHandler(commentService, s.logger)
	managementHandler := transport.NewManagementHandler(managementService, s.logger)

	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, s.logger)
	sessions := session.NewRedisStore(s.redis)

	router.Group(func(r chi.Router) {
		// User identity first, so the limiter keys authenticated clients by id
		r.Use(custommiddleware.OptionalAuthMiddleware(cfg.JWT.Secret, s.logger))
		r.Use(custommiddleware.LoggingMiddleware(s.logger))
		r.Use(custommiddleware.RateLimitMiddleware(s.redis, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.Requests,
			Window:            cfg.RateLimit.Window,
			KeyPrefix:         "foodmart:ratelimit",
		}, s.logger))
		r.Use(session.Middleware(sessions, session.Options{
			CookieName: cfg.Session.CookieName,
			TTL:        cfg.Session.TTL,
			Secure:     cfg.Session.Secure,
		}, s.logger))

		userHandler.RegisterRoutes(r, authMiddleware)
		catalogHandler.RegisterRoutes(r)
		cartHandler.RegisterRoutes(r, authMiddleware)
		listHandler.RegisterRoutes(r, authMiddleware)
		commentHandler.RegisterRoutes(r, authMiddleware)
		managementHandler.RegisterRoutes(r, authMiddleware)
	})

	return router
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	dbHealth := s.db.Health(ctx)

	redisStatus := "up"
	if err := s.redis.Ping(ctx).Err(); err != nil {
		redisStatus = "down"
	}

	status := http.StatusOK
	if dbHealth["status"] != "up" {
		status = http.StatusServiceUnavailable
	}

	custommiddleware.RespondWithJSON(w, status, map[string]interface{}{
		"status":   dbHealth["status"],
		"database": dbHealth,
		"redis":    redisStatus,
	})
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
