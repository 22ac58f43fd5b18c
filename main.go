package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"vidvault/internal/handlers"
	"vidvault/internal/middleware"
	"vidvault/internal/models"
	"vidvault/internal/repositories"
	"vidvault/internal/services"
	"vidvault/internal/storage"
	"vidvault/internal/views"
	"vidvault/pkg/rabbitmq"
)

// loadConfig resolves the runtime configuration from the environment, with
// sensible defaults for local development.
func loadConfig() {
	viper.SetDefault("APP_PORT", ":8080")
	viper.SetDefault("DB_DRIVER", "sqlite")
	viper.SetDefault("DATABASE_DSN", "vidvault.db")
	viper.SetDefault("UPLOAD_DIR", filepath.Join("static", "videos"))
	viper.SetDefault("SESSION_SECRET", "dev-session-secret")
	viper.SetDefault("RABBITMQ_URL", "") // empty disables video events
	viper.AutomaticEnv()
}

// openDatabase opens the configured relational store and creates the schema.
func openDatabase() (*gorm.DB, error) {
	dsn := viper.GetString("DATABASE_DSN")

	var dialector gorm.Dialector
	switch driver := viper.GetString("DB_DRIVER"); driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Video{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// NewApp wires the repositories, services and handlers into a Fiber app.
// The returned cleanup function releases external resources.
func NewApp() (*fiber.App, func(), error) {
	loadConfig()

	db, err := openDatabase()
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewDiskStore(viper.GetString("UPLOAD_DIR"))
	if err := store.EnsureDir(); err != nil {
		return nil, nil, err
	}

	// --- Optional RabbitMQ client for video events ---
	var mqClient *rabbitmq.Client
	var events services.EventPublisher
	if url := viper.GetString("RABBITMQ_URL"); url != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: url})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize RabbitMQ client: %w", err)
		}
		events = mqClient

		// Drain our own queue so events are visible in the server log.
		if consumerErr := mqClient.ConsumeVideoEvents(func(msg amqp.Delivery) error {
			log.Printf("Received video event (tag %d): %s", msg.DeliveryTag, string(msg.Body))
			return nil
		}); consumerErr != nil {
			log.Printf("Failed to start RabbitMQ consumer: %v", consumerErr)
		}
	}

	// --- Repositories ---
	userRepo := repositories.NewGORMUserRepository(db)
	videoRepo := repositories.NewGORMVideoRepository(db)

	// --- Services ---
	authService := services.NewAuthService(userRepo, viper.GetString("SESSION_SECRET"))
	videoService := services.NewVideoService(videoRepo, store, events)

	// --- Handlers ---
	authHandler := handlers.NewAuthHandler(authService)
	videoHandler := handlers.NewVideoHandler(videoService)

	app := fiber.New(fiber.Config{
		Views: views.Engine(),
	})
	app.Use(logger.New()) // Request logger

	// Public routes
	authHandler.RegisterRoutes(app)

	// Protected routes behind the session guard
	protected := app.Group("", middleware.SessionRequired(authService, userRepo))
	videoHandler.RegisterRoutes(protected)
	protected.Get("/logout", authHandler.HandleLogout)

	cleanup := func() {
		if mqClient != nil {
			if err := mqClient.Close(); err != nil {
				log.Printf("Error closing RabbitMQ client: %v", err)
			}
		}
	}
	return app, cleanup, nil
}

func main() {
	app, cleanup, err := NewApp()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer cleanup()

	appPort := viper.GetString("APP_PORT")
	log.Printf("Starting server on port %s", appPort)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(appPort); err != nil {
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
