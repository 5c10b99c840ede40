package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"commitcast/ai"
	"commitcast/api"
	"commitcast/config"
	"commitcast/database"
	"commitcast/events"
	"commitcast/metrics"
	"commitcast/repository"
	"commitcast/service"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Println("Starting commitcast server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("Database connection established successfully")

	// Initialize event bus and metrics
	eventBus := events.NewBus()
	metrics.Register()
	metrics.SubscribeToBus(eventBus)

	// Initialize unit of work factory
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Initialize AI client; fall back to canned responses when no key is set
	var aiClient ai.Client
	if cfg.GeminiAPIKey != "" {
		aiClient, err = ai.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return fmt.Errorf("failed to initialize AI client: %w", err)
		}
	} else {
		log.Println("No Gemini API key configured, using fallback AI client")
		aiClient = ai.NewFallbackClient()
	}

	// Initialize services
	log.Println("Initializing services...")
	userService := service.NewUserService(uowFactory, cfg.StartingBalance)
	commitmentService := service.NewCommitmentService(uowFactory, aiClient)
	betService := service.NewBetService(uowFactory)
	advisorService := service.NewAdvisorService(uowFactory, aiClient)
	commentService := service.NewCommentService(uowFactory)
	log.Println("Services initialized successfully")

	// Start the metrics server
	metricsSrv := metrics.StartServer(cfg.MetricsAddr, func(ctx context.Context) error {
		return db.Pool.Ping(ctx)
	})

	// Start the API server
	server := api.NewServer(userService, commitmentService, betService, advisorService, commentService, []byte(cfg.JWTSecret))
	apiSrv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("API server listening on %s", cfg.ListenAddr)
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	log.Printf("Server is running in %s mode...", cfg.Environment)
	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("API server error: %w", err)
	}

	// Cleanup resources
	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := apiSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down API server: %v", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down metrics server: %v", err)
	}

	log.Println("Closing database connection...")
	db.Close()

	log.Println("Shutdown completed")
	return nil
}
