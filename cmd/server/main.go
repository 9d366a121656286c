package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coding_documenty/internal/api"
	"coding_documenty/internal/api/handler"
	"coding_documenty/internal/api/middleware"
	"coding_documenty/internal/api/view"
	"coding_documenty/internal/app/service"
	"coding_documenty/internal/app/worker"
	"coding_documenty/internal/common/security"
	"coding_documenty/internal/domain/repository"
	"coding_documenty/internal/platform/cache"
	"coding_documenty/internal/platform/config"
	"coding_documenty/internal/platform/database"
	"coding_documenty/internal/platform/mail"

	"go.mongodb.org/mongo-driver/mongo/readpref"
)

func main() {
	// 1. Load Configuration
	config.Load()
	cfg := config.AppConfig
	log.Println("Configuration loaded.")

	// 2. Initialize session cookie signing
	security.InitJWT()

	// 3. Initialize the record store
	var (
		questionRepo repository.QuestionRepository
		adminRepo    repository.AdminRepository
		healthChecks = map[string]handler.HealthCheck{}
	)
	switch cfg.StoreDriver {
	case config.StoreDriverMongo:
		database.ConnectMongo()
		defer database.CloseMongo()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		var err error
		if questionRepo, err = repository.NewMongoQuestionRepository(ctx, database.MongoDB); err != nil {
			log.Fatalf("Could not prepare questions collection: %v", err)
		}
		if adminRepo, err = repository.NewMongoAdminRepository(ctx, database.MongoDB); err != nil {
			log.Fatalf("Could not prepare admins collection: %v", err)
		}
		cancel()
		healthChecks["mongo"] = func(ctx context.Context) error {
			return database.MongoClient.Ping(ctx, readpref.Primary())
		}
	case config.StoreDriverPostgres:
		database.Connect()
		defer database.Close()

		questionRepo = repository.NewPgQuestionRepository(database.DB)
		adminRepo = repository.NewPgAdminRepository(database.DB)
		healthChecks["postgres"] = database.DB.PingContext
	default:
		log.Fatalf("Unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	// 4. Initialize Redis
	cache.ConnectRedis()
	defer cache.CloseRedis()
	healthChecks["redis"] = func(ctx context.Context) error {
		return cache.RDB.Ping(ctx).Err()
	}
	locker := cache.NewLocker(cache.RDB, cfg.LockTTL)

	// 5. Initialize Services
	sessionService := service.NewSessionService(repository.NewRedisSessionRepository(cache.RDB), cfg.SessionTTL)
	identityService := service.NewIdentityService(adminRepo, cfg.ResetTokenTTL)
	authService := service.NewAuthService(identityService, sessionService, locker, mail.NewSender(cfg), cfg.SignupSecret)
	questionService := service.NewQuestionService(questionRepo)

	// 6. Start the reset token sweeper
	sweeper := worker.NewTokenSweeper(identityService, locker, cfg.TokenSweepInterval)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go sweeper.Start(workerCtx)

	// 7. Initialize Router & HTTP Server
	views, err := view.New()
	if err != nil {
		log.Fatalf("Could not parse templates: %v", err)
	}
	router := api.NewRouter(api.RouterDeps{
		QuestionService: questionService,
		AuthService:     authService,
		Sessions:        middleware.NewSessionManager(sessionService, security.TokenAuth, cfg.SessionCookieName, cfg.IsProduction()),
		Views:           views,
		HealthChecks:    healthChecks,
		BaseURL:         cfg.BaseURL,
	})

	server := &http.Server{
		Addr:         ":" + cfg.AppPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 65 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 8. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", cfg.AppPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", cfg.AppPort, err)
		}
	}()

	<-stop // Wait for interrupt signal

	log.Println("Shutting down server...")
	workerCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server and sweeper stopped gracefully.")
}
