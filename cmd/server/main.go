package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskjar/internal/config"
	"taskjar/internal/database"
	"taskjar/internal/handlers"
	"taskjar/internal/repository"
	"taskjar/internal/security"
	"taskjar/internal/service"
	"taskjar/internal/uploads"
)

func main() {
	cfg := config.Load()

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be configured")
	}

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	// Repositories
	parentRepo := repository.NewParentRepository(db)
	childRepo := repository.NewChildRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	pointsRepo := repository.NewPointsRepository(db)

	// Services
	tokens := security.NewTokenIssuer(cfg.JWTSecret, cfg.TokenDuration)
	authService := service.NewAuthService(parentRepo, childRepo, tokens, cfg.MaxPinAttempts, cfg.LockoutWindow)
	familyService := service.NewFamilyService(db, childRepo, pointsRepo)
	taskService := service.NewTaskService(db, taskRepo, childRepo, pointsRepo)

	// Expired reset tokens are swept at startup and then hourly
	if err := authService.CleanupExpiredPasswordResetTokens(); err != nil {
		log.Printf("Reset token cleanup failed: %v", err)
	}
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if err := authService.CleanupExpiredPasswordResetTokens(); err != nil {
				log.Printf("Reset token cleanup failed: %v", err)
			}
		}
	}()

	emailService, err := service.NewEmailService(cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}

	imageStore, err := uploads.NewS3ImageStore(cfg.S3Region, cfg.S3Bucket)
	if err != nil {
		log.Fatalf("Failed to initialize image store: %v", err)
	}

	// Handlers
	loginLimiter := security.NewRateLimiter(10, time.Minute)
	middleware := handlers.NewMiddleware(tokens, loginLimiter)
	authHandler := handlers.NewAuthHandler(authService, emailService)
	childHandler := handlers.NewChildHandler(familyService)
	taskHandler := handlers.NewTaskHandler(taskService)
	uploadHandler := handlers.NewUploadHandler(imageStore, cfg.UploadMaxSize)

	// Routes
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Public routes
	mux.HandleFunc("POST /api/register", middleware.RateLimit(authHandler.Register))
	mux.HandleFunc("POST /api/login", middleware.RateLimit(authHandler.Login))
	mux.HandleFunc("GET /api/kid-login/children", middleware.RateLimit(authHandler.KidLoginChildren))
	mux.HandleFunc("POST /api/kid-login", middleware.RateLimit(authHandler.KidLogin))
	mux.HandleFunc("POST /api/password-reset/request", middleware.RateLimit(authHandler.RequestPasswordReset))
	mux.HandleFunc("POST /api/password-reset/confirm", middleware.RateLimit(authHandler.ConfirmPasswordReset))

	// Parent routes
	mux.HandleFunc("GET /api/me", middleware.RequireParent(authHandler.Me))
	mux.HandleFunc("GET /api/children", middleware.RequireParent(childHandler.ListChildren))
	mux.HandleFunc("POST /api/children", middleware.RequireParent(childHandler.CreateChild))
	mux.HandleFunc("GET /api/children/{id}", middleware.RequireParent(childHandler.GetChild))
	mux.HandleFunc("PUT /api/children/{id}", middleware.RequireParent(childHandler.UpdateChild))
	mux.HandleFunc("DELETE /api/children/{id}", middleware.RequireParent(childHandler.DeleteChild))
	mux.HandleFunc("PUT /api/children/{id}/pin", middleware.RequireParent(authHandler.SetChildPin))
	mux.HandleFunc("DELETE /api/children/{id}/pin", middleware.RequireParent(authHandler.RemoveChildPin))
	mux.HandleFunc("PUT /api/children/{id}/points", middleware.RequireParent(childHandler.OverridePoints))
	mux.HandleFunc("GET /api/children/{id}/points/history", middleware.RequireParent(childHandler.PointsHistory))
	mux.HandleFunc("POST /api/children/{id}/tasks", middleware.RequireParent(taskHandler.AddTasks))
	mux.HandleFunc("DELETE /api/children/{id}/tasks/{taskId}", middleware.RequireParent(taskHandler.DeleteTask))
	mux.HandleFunc("POST /api/uploads", middleware.RequireParent(uploadHandler.UploadImage))

	// Child routes
	mux.HandleFunc("GET /api/kid/me", middleware.RequireChild(childHandler.KidProfile))

	// Parent or matching child token
	mux.HandleFunc("GET /api/children/{id}/tasks", middleware.RequireAuth(taskHandler.TasksForDate))
	mux.HandleFunc("PUT /api/children/{id}/tasks/{taskId}/completion", middleware.RequireAuth(taskHandler.SetCompletion))

	handler := handlers.Logging(mux)

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
