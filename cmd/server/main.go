package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/Zarutan454/website-Template-sub013/internal/client"
	"github.com/Zarutan454/website-Template-sub013/internal/config"
	"github.com/Zarutan454/website-Template-sub013/internal/handler"
	"github.com/Zarutan454/website-Template-sub013/internal/middleware"
	"github.com/Zarutan454/website-Template-sub013/internal/pubsub"
	"github.com/Zarutan454/website-Template-sub013/internal/repository"
	"github.com/Zarutan454/website-Template-sub013/internal/service"
	"github.com/Zarutan454/website-Template-sub013/pkg/db"
	"github.com/Zarutan454/website-Template-sub013/pkg/logger"
	"github.com/Zarutan454/website-Template-sub013/pkg/metrics"
)

func main() {
	// Initialize logger
	log := logger.NewLogger("mining-service")
	log.Info("Starting Mining Service...")

	cfg := config.Load()

	// Initialize database connection
	conn, err := db.NewConnection(db.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Database: cfg.DBDatabase,
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer conn.Close()

	log.Info("Database connected")

	// Initialize repositories
	sessionRepo := repository.NewMiningSessionRepository(conn.DB)
	activityRepo := repository.NewActivityRepository(conn.DB)

	// Initialize backend REST client
	miningClient := client.New(cfg.BackendBaseURL)

	// Initialize event publisher; the engine runs without one
	var publisher pubsub.EventPublisher
	if cfg.RedisURL != "" {
		publisher, err = pubsub.NewRedisPublisher(cfg.RedisURL)
		if err != nil {
			log.WithError(err).Warn("Failed to connect to Redis - events disabled")
		} else {
			defer publisher.Close()
			log.Info("Connected to Redis")
		}
	}

	serviceMetrics := metrics.NewMetrics("engine")

	// Initialize services
	limiter := service.NewLimiterService(activityRepo, log)
	miningService := service.NewMiningService(
		sessionRepo,
		activityRepo,
		miningClient,
		limiter,
		publisher,
		serviceMetrics,
		log,
		cfg.HeartbeatInterval,
		cfg.InactivityTimeout,
	)

	// Initialize handlers
	miningHandler := handler.NewMiningHandler(miningService, log)

	// Router
	r := mux.NewRouter()
	r.Use(middleware.Logging(log))
	r.Use(middleware.Metrics(serviceMetrics))

	r.HandleFunc("/health", handler.Health(conn.DB)).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.Auth(cfg.JWTSecret))

	api.HandleFunc("/mining/start", miningHandler.StartMining).Methods("POST")
	api.HandleFunc("/mining/stop", miningHandler.StopMining).Methods("POST")
	api.HandleFunc("/mining/status", miningHandler.Status).Methods("GET")
	api.HandleFunc("/mining/activity", miningHandler.RecordActivity).Methods("POST")
	api.HandleFunc("/mining/interaction", miningHandler.Interaction).Methods("POST")
	api.HandleFunc("/mining/activities", miningHandler.Activities).Methods("GET")
	api.HandleFunc("/mining/activities/count", miningHandler.ActivityCount).Methods("GET")

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedCORS,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	}).Handler(r)

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      corsHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	// Report DB pool stats alongside the other gauges
	poolCtx, poolCancel := context.WithCancel(context.Background())
	defer poolCancel()
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-poolCtx.Done():
				return
			case <-ticker.C:
				stats := conn.DB.Stats()
				serviceMetrics.RecordDBPoolStats(stats.OpenConnections, stats.InUse, stats.Idle, stats.WaitCount, stats.WaitDuration)
			}
		}
	}()

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		log.Info("Shutting down gracefully...")
		miningService.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("HTTP shutdown error")
		}
		log.Info("Shutdown complete")
	}()

	log.WithField("port", cfg.HTTPPort).Info("Mining Service started")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("Failed to serve")
	}
}
