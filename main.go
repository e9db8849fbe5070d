package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"petadopt/internal/config"
	"petadopt/internal/handlers"
	"petadopt/internal/middleware"
	"petadopt/internal/models"
	"petadopt/internal/repositories"
	"petadopt/internal/services"
	"petadopt/internal/storage"
	"petadopt/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	cfg := config.Load()

	// --- Database (GORM) ---
	db, err := openDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.Shelter{},
		&models.Pet{},
		&models.PetPhoto{},
		&models.AdoptionRequest{},
	)
	if err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// --- File storage ---
	store := storage.NewLocalStore(cfg.MediaDir, cfg.BaseURL)

	// --- RabbitMQ (optional) ---
	// Adoption lifecycle events are published synchronously in-request;
	// without a broker URL the services simply skip publishing.
	var publisher services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			log.Fatalf("Failed to initialize RabbitMQ client: %v", err)
		}
		defer mqClient.Close()
		publisher = mqClient
	} else {
		log.Println("RABBITMQ_URL not set, event publishing disabled")
	}

	// --- Repositories ---
	userRepo := repositories.NewGORMUserRepository(db)
	shelterRepo := repositories.NewGORMShelterRepository(db)
	petRepo := repositories.NewGORMPetRepository(db)
	adoptionRepo := repositories.NewGORMAdoptionRepository(db)

	// --- Services ---
	authService := services.NewAuthService(userRepo, cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTTL)
	userService := services.NewUserService(userRepo)
	photoManager := services.NewPhotoManager(petRepo, store)
	petService := services.NewPetService(petRepo, shelterRepo, photoManager)
	shelterService := services.NewShelterService(shelterRepo, store)
	adoptionService := services.NewAdoptionService(adoptionRepo, petRepo, publisher)

	// --- Handlers ---
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	petHandler := handlers.NewPetHandler(petService, store)
	shelterHandler := handlers.NewShelterHandler(shelterService, store)
	adoptionHandler := handlers.NewAdoptionHandler(adoptionService)

	// --- Fiber app ---
	app := fiber.New(fiber.Config{
		BodyLimit: 25 * 1024 * 1024, // photo uploads
	})
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.AllowedOrigins}))

	// Uploaded photos are served straight from the media directory.
	app.Static("/media", cfg.MediaDir)

	apiV1 := app.Group("/api/v1")

	// Public routes: registration, login, and anonymous reads.
	authHandler.RegisterRoutes(apiV1)
	public := apiV1.Group("", middleware.AuthOptional(authService))
	petHandler.RegisterPublicRoutes(public)
	shelterHandler.RegisterPublicRoutes(public)

	// Protected routes.
	protected := apiV1.Group("", middleware.AuthRequired(authService))
	userHandler.RegisterRoutes(protected)
	petHandler.RegisterRoutes(protected)
	shelterHandler.RegisterRoutes(protected)
	adoptionHandler.RegisterRoutes(protected)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// --- Start HTTP server ---
	log.Printf("Starting server on port %s", cfg.AppPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}

// openDatabase connects to the configured database. TranslateError makes
// unique constraint violations surface as gorm.ErrDuplicatedKey, which the
// repositories rely on.
func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{TranslateError: true}
	switch cfg.DatabaseDriver {
	case "sqlite":
		return gorm.Open(sqlite.Open(cfg.DatabaseDSN), gormCfg)
	default:
		return gorm.Open(postgres.Open(cfg.DatabaseDSN), gormCfg)
	}
}
