package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/autoagora/autoagora-backend/internal/config"
	"github.com/autoagora/autoagora-backend/internal/database"
	"github.com/autoagora/autoagora-backend/internal/handlers"
	"github.com/autoagora/autoagora-backend/internal/routes"
	"github.com/autoagora/autoagora-backend/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	if err := database.ConnectPostgres(cfg.PostgresURI); err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer database.DisconnectPostgres()

	if err := database.ConnectRedis(cfg.RedisURI); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer database.DisconnectRedis()

	if err := database.ConnectMongo(cfg.MongoURI); err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer database.DisconnectMongo()

	indexCtx, cancelIndex := context.WithTimeout(context.Background(), 15*time.Second)
	if err := services.EnsureChatIndexes(indexCtx); err != nil {
		log.Printf("Warning: failed to ensure chat indexes: %v", err)
	}
	cancelIndex()

	listingStore := services.NewPostgresListingStore(database.PostgresDB)
	userStore := services.NewPostgresUserStore(database.PostgresDB)
	quotaPolicy := services.NewQuotaPolicy()

	var sms services.SMSSender
	if cfg.SMSAPIURL != "" {
		sms = services.NewHTTPSMSSender(cfg.SMSAPIURL, cfg.SMSAPIKey, cfg.SMSSender)
	} else {
		log.Println("SMS_API_URL not set; verification codes will be logged only")
		sms = services.LogSMSSender{}
	}
	codeStore := services.NewRedisCodeStore(database.RedisClient, time.Now)
	issuer := services.NewVerificationCodeIssuer(codeStore, sms, time.Now)

	sweeper := services.NewExpirationSweeper(listingStore, time.Now, cfg.SweepInterval)
	sweeper.Start()
	defer sweeper.Stop()
	log.Printf("✅ Expiration sweeper started (every %s)", cfg.SweepInterval)

	if cfg.CloudinaryName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		uploadSvc, err := services.NewCloudinaryService(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			log.Printf("Warning: Cloudinary init failed, uploads disabled: %v", err)
		} else {
			handlers.InitUploader(uploadSvc)
			log.Println("✅ Cloudinary upload service initialized")
		}
	} else {
		log.Println("Cloudinary credentials not set; image uploads disabled")
	}

	handlers.Init(cfg, listingStore, userStore, quotaPolicy, issuer, sweeper, time.Now)

	subCtx, cancelSub := context.WithCancel(context.Background())
	defer cancelSub()
	services.StartRedisChatSubscriber(subCtx)

	router := routes.New(cfg)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("✅ Server listening on port %s (env: %s)", cfg.Port, cfg.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
