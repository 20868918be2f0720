package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/arvindrao/savaari/internal/cache"
	"github.com/arvindrao/savaari/internal/config"
	"github.com/arvindrao/savaari/internal/database"
	"github.com/arvindrao/savaari/internal/fare"
	"github.com/arvindrao/savaari/internal/handler"
	"github.com/arvindrao/savaari/internal/maps"
	"github.com/arvindrao/savaari/internal/middleware"
	"github.com/arvindrao/savaari/internal/repository"
	"github.com/arvindrao/savaari/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize New Relic (optional)
	var nrApp *newrelic.Application
	if cfg.NewRelicEnabled && cfg.NewRelicLicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelicAppName),
			newrelic.ConfigLicense(cfg.NewRelicLicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
			newrelic.ConfigInfoLogger(os.Stdout),
		)
		if err != nil {
			log.Printf("Warning: Failed to initialize New Relic: %v", err)
		} else if err := nrApp.WaitForConnection(10 * time.Second); err != nil {
			log.Printf("Warning: New Relic connection timeout: %v", err)
		}
	}

	// Initialize PostgreSQL
	db, err := database.NewPostgres(
		cfg.DatabaseURL,
		cfg.DBMaxConnections,
		cfg.DBMaxIdleConnections,
	)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	// Initialize Redis
	redis, err := database.NewRedis(cfg.RedisURL, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redis.Close()
	log.Println("Connected to Redis")

	rideCache := cache.NewRideCache(redis.Client)

	// Route provider is optional; without an API key estimates fall back
	// to the distance heuristic.
	var routes maps.RouteProvider
	if cfg.GoogleMapsAPIKey != "" {
		routes, err = maps.NewRouteService(cfg.GoogleMapsAPIKey)
		if err != nil {
			log.Printf("Warning: Google Maps client unavailable: %v", err)
		}
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.DB)
	driverRepo := repository.NewDriverRepository(db.DB)
	rideRepo := repository.NewRideRepository(db.DB)
	passengerRepo := repository.NewPassengerRepository(db.DB)
	subscriptionRepo := repository.NewSubscriptionRepository(db.DB)

	// Initialize services
	estimateService := service.NewEstimateService(fare.NewEstimator(fare.DefaultTable()), routes)
	userService := service.NewUserService(userRepo, cfg.JWTSecret, cfg.TokenExpiry)
	subscriptionService := service.NewSubscriptionService(subscriptionRepo)
	rideService := service.NewRideService(rideRepo, userRepo, driverRepo, passengerRepo, estimateService, subscriptionService, rideCache)

	// Initialize handlers
	eventHub := handler.NewEventHub(rideCache)
	userHandler := handler.NewUserHandler(userService)
	rideHandler := handler.NewRideHandler(rideService, estimateService)
	subscriptionHandler := handler.NewSubscriptionHandler(subscriptionService)
	driverHandler := handler.NewDriverHandler(rideService)
	sseHandler := handler.NewSSEHandler(rideRepo, rideCache, eventHub)
	wsHandler := handler.NewWSHandler(rideRepo, eventHub)

	// Create router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(middleware.Recovery)
	r.Use(middleware.Logger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Link", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// New Relic middleware
	if nrApp != nil {
		r.Use(middleware.NewRelicMiddleware(nrApp))
	}

	rateLimiter := middleware.NewRateLimiter(redis.Client, cfg.RateLimitRequests, cfg.RateLimitWindow)
	r.Use(rateLimiter.Handler)

	idempotencyMw := middleware.NewIdempotencyMiddleware(redis.Client)
	r.Use(idempotencyMw.Handler)

	authMw := middleware.NewAuthMiddleware(cfg.JWTSecret)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if err := db.Health(ctx); err != nil {
			http.Error(w, "database unhealthy", http.StatusServiceUnavailable)
			return
		}
		if err := redis.Health(ctx); err != nil {
			http.Error(w, "redis unhealthy", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","services":{"database":"up","redis":"up"}}`))
	})

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Public routes
		userHandler.RegisterRoutes(r)
		sseHandler.RegisterRoutes(r)
		wsHandler.RegisterRoutes(r)
		driverHandler.RegisterRoutes(r)

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(authMw.Handler)
			userHandler.RegisterProtectedRoutes(r)
			rideHandler.RegisterRoutes(r)
			subscriptionHandler.RegisterRoutes(r)
		})
	})

	// Create server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	log.Println("API endpoints:")
	log.Println("  POST /v1/auth/register           - Register rider")
	log.Println("  POST /v1/auth/login              - Login")
	log.Println("  POST /v1/rides/fare-estimate     - Itemized fare estimate")
	log.Println("  POST /v1/rides                   - Request ride")
	log.Println("  GET  /v1/rides/{id}              - Get ride")
	log.Println("  POST /v1/rides/{id}/cancel       - Cancel ride")
	log.Println("  POST /v1/rides/{id}/status       - Driver status update")
	log.Println("  POST /v1/subscriptions/validate  - Subscription discount check")
	log.Println("  POST /v1/drivers/{id}/location   - Driver location ping")
	log.Println("  GET  /v1/rides/{id}/track        - SSE live tracking")
	log.Println("  GET  /v1/rides/{id}/stream       - Websocket live tracking")

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server stopped gracefully")
}
