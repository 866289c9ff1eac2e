package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lmittmann/tint"
	"github.com/rs/cors"

	"go_5_flashcards_keep/internal/config"
	"go_5_flashcards_keep/internal/handlers"
	"go_5_flashcards_keep/internal/middleware"
	"go_5_flashcards_keep/internal/model"
	"go_5_flashcards_keep/internal/repository"
	"go_5_flashcards_keep/internal/review"
	"go_5_flashcards_keep/internal/service"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

func main() {
	// 設定ファイル読み込み用の一時的なロガー設定
	tempLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(tempLogger)

	if err := config.LoadConfig("./configs"); err != nil {
		slog.Error("Error loading configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// === 設定に基づいて slog ロガーを初期化 ===
	logLevel := new(slog.LevelVar)
	switch strings.ToLower(config.Cfg.Log.Level) {
	case "debug":
		logLevel.Set(slog.LevelDebug)
	case "info":
		logLevel.Set(slog.LevelInfo)
	case "warn", "warning":
		logLevel.Set(slog.LevelWarn)
	case "error":
		logLevel.Set(slog.LevelError)
	default:
		logLevel.Set(slog.LevelInfo)
		slog.Warn("Unknown log level specified in config, defaulting to INFO", slog.String("level", config.Cfg.Log.Level))
	}

	var handler slog.Handler
	appEnv := os.Getenv("APP_ENV")
	if strings.ToLower(appEnv) == "dev" {
		tintOpts := &tint.Options{
			Level:      logLevel,
			TimeFormat: time.RFC3339,
		}
		handler = tint.NewHandler(os.Stderr, tintOpts)
		tempLogger.Info("Using TINT log handler", slog.String("APP_ENV", appEnv))
	} else {
		jsonOpts := &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}
		handler = slog.NewJSONHandler(os.Stderr, jsonOpts)
		tempLogger.Info("Using JSON log handler", slog.String("APP_ENV", appEnv))
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	slog.Info("Application starting...", slog.String("app", config.AppName), slog.String("version", config.AppVersion))

	// データベース接続 (GORM)
	db, err := repository.NewDB(config.Cfg.Database.URL, logger)
	if err != nil {
		slog.Error("Error initializing database", slog.Any("error", err))
		os.Exit(1)
	}
	sqlDB, err := db.DB()
	if err != nil {
		slog.Error("Error getting underlying sql.DB from GORM", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			slog.Error("Error closing database connection", slog.Any("error", err))
		} else {
			slog.Info("Database connection closed.")
		}
	}()

	// スキーママイグレーション
	if err := db.AutoMigrate(
		&model.Tenant{},
		&model.UserVerificationToken{},
		&model.Generation{},
		&model.GenerationErrorLog{},
		&model.Flashcard{},
	); err != nil {
		slog.Error("Error migrating database schema", slog.Any("error", err))
		os.Exit(1)
	}

	// AIゲートウェイクライアント
	var chat service.ChatClient
	if chatClient, err := service.NewProposalChatClient(&config.Cfg, logger); err != nil {
		if config.Cfg.OpenRouter.UseMock {
			// モック動作時はAPIキー未設定を許容する
			slog.Warn("OpenRouter client not configured, continuing with mock generation", slog.Any("error", err))
		} else {
			slog.Error("Error initializing OpenRouter client", slog.Any("error", err))
			os.Exit(1)
		}
	} else {
		chat = chatClient
	}

	// Dependency Injection
	tenantRepo := repository.NewGormTenantRepository()
	tokenRepo := repository.NewGormTokenRepository()
	cardRepo := repository.NewGormFlashcardRepository()
	genRepo := repository.NewGormGenerationRepository()

	mailer := service.NewMailer(&config.Cfg)
	authService := service.NewAuthService(db, tenantRepo, tokenRepo, mailer, &config.Cfg)
	flashcardService := service.NewFlashcardService(db, cardRepo, genRepo)
	generationService := service.NewGenerationService(db, genRepo, chat, &config.Cfg)

	reviewStore := review.NewStore()
	reviewBus := review.NewBus()
	committer := review.NewCommitter(flashcardService, reviewBus)

	authHandler := handlers.NewAuthHandler(authService)
	generationHandler := handlers.NewGenerationHandler(generationService, reviewStore, logger)
	reviewHandler := handlers.NewReviewHandler(reviewStore, committer, logger)
	flashcardHandler := handlers.NewFlashcardHandler(flashcardService, logger)

	// Router
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.LoggingMiddleware(logger))

	corsOptions := cors.Options{
		AllowedOrigins:   config.Cfg.CORS.AllowedOrigins,
		AllowedMethods:   config.Cfg.CORS.AllowedMethods,
		AllowedHeaders:   config.Cfg.CORS.AllowedHeaders,
		ExposedHeaders:   config.Cfg.CORS.ExposedHeaders,
		AllowCredentials: config.Cfg.CORS.AllowCredentials,
		MaxAge:           config.Cfg.CORS.MaxAge,
		Debug:            false,
	}
	corsHandler := cors.New(corsOptions)
	r.Use(corsHandler.Handler)

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// API Routes
	r.Route("/api/v1", func(r chi.Router) {
		// --- Public routes ---
		r.Post("/auth/register", authHandler.Register)
		r.Get("/auth/verify", authHandler.VerifyAccount)
		r.Post("/auth/login", authHandler.Login)

		// --- Protected routes ---
		r.Group(func(r chi.Router) {
			r.Use(middleware.JWTAuthMiddleware(&config.Cfg))

			r.Get("/auth/me", authHandler.GetMe)

			r.Route("/generations", func(r chi.Router) {
				r.Post("/", generationHandler.PostGeneration)
				r.Get("/{generation_id}", generationHandler.GetGeneration)
			})

			r.Route("/reviews", func(r chi.Router) {
				r.Get("/", reviewHandler.GetSession)
				r.Delete("/", reviewHandler.DeleteSession)
				r.Post("/commit", reviewHandler.Commit)
				r.Post("/proposals/{temp_id}/accept", reviewHandler.AcceptProposal)
				r.Post("/proposals/{temp_id}/reject", reviewHandler.RejectProposal)
				r.Patch("/proposals/{temp_id}", reviewHandler.EditProposal)
			})

			r.Route("/flashcards", func(r chi.Router) {
				r.Post("/", flashcardHandler.PostFlashcards)
				r.Get("/", flashcardHandler.GetFlashcards)
				r.Get("/{flashcard_id}", flashcardHandler.GetFlashcard)
				r.Patch("/{flashcard_id}", flashcardHandler.PatchFlashcard)
				r.Delete("/{flashcard_id}", flashcardHandler.DeleteFlashcard)
			})
		})
	})

	// Health Check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if err := sqlDB.PingContext(ctx); err != nil {
			slog.ErrorContext(ctx, "Health check failed: could not ping DB", slog.Any("error", err))
			http.Error(w, "Health check failed", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// コミット通知の購読 (現状はログ出力のみ)
	go func() {
		for n := range reviewBus.Subscribe() {
			slog.Info("Review notification", slog.String("type", string(n.Type)), slog.String("message", n.Message))
		}
	}()

	server := &http.Server{
		Addr:         config.Cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("Server listening", slog.String("port", config.Cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Could not listen on port", slog.String("port", config.Cfg.Server.Port), slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", slog.Any("error", err))
	}

	log.Println("Server exiting")
}
