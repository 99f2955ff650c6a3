package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/yungbote/allthebeans-backend/internal/db"
	"github.com/yungbote/allthebeans-backend/internal/handlers"
	"github.com/yungbote/allthebeans-backend/internal/logger"
	"github.com/yungbote/allthebeans-backend/internal/mappers"
	"github.com/yungbote/allthebeans-backend/internal/middleware"
	"github.com/yungbote/allthebeans-backend/internal/observability"
	"github.com/yungbote/allthebeans-backend/internal/repos"
	"github.com/yungbote/allthebeans-backend/internal/server"
	"github.com/yungbote/allthebeans-backend/internal/services"
	"github.com/yungbote/allthebeans-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	imagesLocation, err := utils.GetEnvRequired("IMAGES_LOCATION", log)
	if err != nil {
		log.Fatal("Missing required configuration", "error", err)
	}
	currencyCulture, err := utils.GetEnvRequired("CURRENCY_CULTURE", log)
	if err != nil {
		log.Fatal("Missing required configuration", "error", err)
	}
	port := utils.GetEnv("PORT", "8080", log)
	permitLimit := utils.GetEnvAsInt("RATE_LIMIT_PERMIT", 10, log)
	queueLimit := utils.GetEnvAsInt("RATE_LIMIT_QUEUE", 20, log)
	seedFile := utils.GetEnv("SEED_FILE", "", log)

	// Tracing
	shutdownOTel := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "allthebeans",
		Environment: utils.GetEnv("DEPLOY_ENV", "development", log),
		Version:     utils.GetEnv("SERVICE_VERSION", "dev", log),
	})
	if shutdownOTel != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownOTel(ctx)
		}()
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Postgres init failed", "error", err)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Fatal("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()
	exec := db.NewExecutionStrategy(thePG, log)

	// Repos
	log.Info("Setting up Repos from main...")
	beanRepo := repos.NewBeanRepo(thePG, log)
	countryRepo := repos.NewCountryRepo(thePG, log)
	botdRepo := repos.NewBeanOfTheDayRepo(thePG, log)

	// Services
	log.Info("Setting up Services from main...")
	beanService := services.NewBeanService(log, exec, beanRepo, countryRepo)
	botdService := services.NewBeanOfTheDayService(log, exec, beanRepo, botdRepo, nil)
	initService := services.NewInitialisationService(thePG, log, exec, beanRepo, countryRepo)

	// Mapper
	beanMapper, err := mappers.NewBeanMapper(imagesLocation, currencyCulture)
	if err != nil {
		log.Fatal("Could not init BeanMapper", "error", err)
	}

	// Seed
	if seedFile != "" {
		created, err := initService.InitialiseFromFile(context.Background(), seedFile)
		if err != nil {
			log.Fatal("Seeding failed", "file", seedFile, "error", err)
		}
		log.Info("Seeding complete", "file", seedFile, "created", created)
	}

	// Handlers
	log.Info("Setting up Handlers from main...")
	beanHandler := handlers.NewBeanHandler(beanService, botdService, beanMapper)

	// Middleware
	rateLimiter := middleware.NewConcurrencyLimiter(log, permitLimit, queueLimit)

	// Router
	router := server.NewRouter(server.RouterConfig{
		BeanHandler: beanHandler,
		RateLimiter: rateLimiter,
	})

	log.Info("Starting server...", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Server exited", "error", err)
	}
}
