package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/movie-recommender/config"
	"github.com/dustin/movie-recommender/internal/adapter"
	"github.com/dustin/movie-recommender/internal/breaker"
	"github.com/dustin/movie-recommender/internal/feedcache"
	"github.com/dustin/movie-recommender/internal/middleware"
	"github.com/dustin/movie-recommender/internal/movie"
	"github.com/dustin/movie-recommender/internal/profile"
	"github.com/dustin/movie-recommender/internal/rating"
	"github.com/dustin/movie-recommender/internal/recommendation"
	"github.com/dustin/movie-recommender/internal/repository"
	"github.com/dustin/movie-recommender/internal/utils"
	"github.com/dustin/movie-recommender/internal/worker"
	"github.com/dustin/movie-recommender/pkg/database"
	"github.com/dustin/movie-recommender/pkg/logger"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load configuration from environment variables
	cfg := config.Load()

	appLogger, err := logger.NewLogger(&cfg.Logging)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	appLogger.Info("Starting movie recommender service")

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		appLogger.Fatal("Failed to connect to database: " + err.Error())
	}
	appLogger.Info("Database connection established")

	if err := db.AutoMigrate(repository.Models()...); err != nil {
		appLogger.Fatal("Failed to migrate database: " + err.Error())
	}
	appLogger.Info("Database migration completed")

	// Validate every tunable up front so a bad value fails the boot, not a request
	profileSettings, err := profile.NewSettings(&cfg.Recommendation)
	if err != nil {
		appLogger.Fatal("Invalid recommendation config: " + err.Error())
	}
	recSettings, err := recommendation.NewSettings(&cfg.Recommendation, &cfg.Similarity)
	if err != nil {
		appLogger.Fatal("Invalid recommendation config: " + err.Error())
	}
	cacheSettings, err := feedcache.NewSettings(&cfg.Cache)
	if err != nil {
		appLogger.Fatal("Invalid feed cache config: " + err.Error())
	}

	// Repositories
	movieRepo := repository.NewGORMMovieRepository(db, appLogger)
	ratingRepo := repository.NewGORMRatingRepository(db, appLogger)
	profileRepo := repository.NewGORMProfileRepository(db, appLogger)
	vectorIndex := breaker.NewGuardedIndex(
		repository.NewGORMVectorIndex(db, appLogger),
		breaker.DefaultSettings(),
		appLogger,
	)

	// Services
	images := movie.NewImageURLs(&cfg.Images)
	movieService := movie.NewService(movieRepo, appLogger)
	profileService := profile.NewService(profileRepo, profileRepo, movieService, profileSettings, appLogger)

	feedCache := feedcache.NewCache[recommendation.FeedItem](cacheSettings, appLogger)
	engine := recommendation.NewRerankEngine(vectorIndex, movieRepo, recSettings, appLogger)
	recommendationService := recommendation.NewService(engine, profileService, vectorIndex, movieRepo, feedCache, recSettings, appLogger)

	notifier := adapter.NewRatingChangeNotifier(profileService, recommendationService, appLogger)
	ratingService := rating.NewService(ratingRepo, movieService, notifier, appLogger)

	// HTTP handlers
	movieHandler := movie.NewHandler(movieService, images)
	ratingHandler := rating.NewHandler(ratingService)
	profileHandler := profile.NewHandler(profileService)
	recommendationHandler := recommendation.NewHandler(recommendationService, images)

	limiter, err := middleware.NewRateLimiter(&cfg.RateLimit, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize rate limiter: " + err.Error())
	}

	sweepWorker, err := worker.NewSweepWorker(&cfg.Worker, map[string]worker.Sweeper{
		"feed_windows":  feedCache,
		"rate_limiters": worker.SweepFunc(limiter.Cleanup),
	}, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize sweep worker: " + err.Error())
	}
	if err := sweepWorker.Start(); err != nil {
		appLogger.Error("Failed to start sweep worker: " + err.Error())
	}

	serverEnvironment := cfg.Server.Environment
	if serverEnvironment == "" {
		serverEnvironment = "development" // default
	}
	if serverEnvironment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(requestid.New())
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID", "Retry-After"},
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "movie-recommender",
		})
	})

	router.GET("/health/detailed", func(c *gin.Context) {
		code, status, dbStatus := http.StatusOK, "healthy", "connected"
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			code, status, dbStatus = http.StatusServiceUnavailable, "degraded", "unreachable"
		}

		c.JSON(code, gin.H{
			"status":         status,
			"timestamp":      time.Now(),
			"service":        "movie-recommender",
			"database":       dbStatus,
			"vector_index":   vectorIndex.State(),
			"sweep_worker":   sweepWorker.IsRunning(),
			"cached_windows": feedCache.Len(),
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	jwtSecret := cfg.JWT.Secret
	if jwtSecret == "" {
		jwtSecret = "change-me-in-production" // default
	}
	authMiddleware := utils.JWTMiddleware(jwtSecret)
	rateLimit := limiter.Middleware()

	v1 := router.Group("/api/v1")
	{
		// Each feature manages its own routes
		recommendationHandler.RegisterRoutes(v1, authMiddleware, rateLimit)
		movieHandler.RegisterRoutes(v1, rateLimit)
		ratingHandler.RegisterRoutes(v1, authMiddleware, rateLimit)
		profileHandler.RegisterRoutes(v1, authMiddleware, rateLimit)
	}

	serverPort := cfg.Server.Port
	if serverPort == "" {
		serverPort = "8080" // default
	}

	serverReadTimeout := 30 * time.Second // default
	if cfg.Server.ReadTimeout != "" {
		if duration, err := time.ParseDuration(cfg.Server.ReadTimeout); err == nil {
			serverReadTimeout = duration
		}
	}

	serverWriteTimeout := 30 * time.Second // default
	if cfg.Server.WriteTimeout != "" {
		if duration, err := time.ParseDuration(cfg.Server.WriteTimeout); err == nil {
			serverWriteTimeout = duration
		}
	}

	srv := &http.Server{
		Addr:         ":" + serverPort,
		Handler:      router,
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("Failed to start server: " + err.Error())
		}
	}()

	appLogger.Info("Server started successfully on port " + serverPort + " (" + serverEnvironment + " environment)")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	if err := sweepWorker.Stop(); err != nil {
		appLogger.Error("Error stopping sweep worker: " + err.Error())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Fatal("Server forced to shutdown: " + err.Error())
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	appLogger.Info("Server shutdown complete")
}
