package main

import (
	"fmt"
	"log"
	"os"
	"time"

	chathandlers "vehicle_rental_service/internal/chat/api/handlers"
	chatapp "vehicle_rental_service/internal/chat/app"
	chatrepo "vehicle_rental_service/internal/chat/repository"
	rtapp "vehicle_rental_service/internal/realtime/app"
	rtrepo "vehicle_rental_service/internal/realtime/repository"
	"vehicle_rental_service/internal/realtime/router"
	"vehicle_rental_service/pkg/config"
	"vehicle_rental_service/pkg/database"
	"vehicle_rental_service/pkg/logger"
	"vehicle_rental_service/pkg/token"

	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.RealtimeService, config.EnvConfig.RealtimeLogPath)
	cfg := config.LoadConfig[config.Realtime](config.EnvConfig.RealtimeService, config.EnvConfig.RealtimeYAMLPath)

	connStr := fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		cfg.PostgreSQL.User, cfg.PostgreSQL.Password,
		cfg.PostgreSQL.Host, cfg.PostgreSQL.Port, cfg.PostgreSQL.Database,
	)
	conn := database.Connection{
		ConnectStr:    connStr,
		RetryCount:    cfg.PostgreSQL.RetryCount,
		RetryInterval: time.Duration(cfg.PostgreSQL.RetryInterval),
	}

	// gorm connection owns the chat message store
	gormDB, err := database.NewGormConnection(conn)
	if err != nil {
		logger.Log.Fatal("Unable to connect to postgreSQL database after retries",
			zap.String("address", fmt.Sprintf("[%s]", connStr)),
			zap.Error(err),
		)
	}
	if err := chatrepo.AutoMigrateMessages(gormDB); err != nil {
		logger.Log.Fatal("support_messages migration failed", zap.Error(err))
	}

	// pgx pool serves the read-only user and ticket accessors
	pool, err := database.NewDatabaseConnection(conn)
	if err != nil {
		logger.Log.Fatal("Unable to connect to postgreSQL database after retries",
			zap.String("address", fmt.Sprintf("[%s]", connStr)),
			zap.Error(err),
		)
	}
	defer pool.Close()

	redisClient, err := database.NewRedisClient(
		fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		cfg.Redis.RedisDB,
	)
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("connect redis err : %v", err))
	}

	verifier := token.NewVerifier(cfg.JWTSecret, config.EnvConfig.RealtimeService)

	msgRepo := chatrepo.NewMessageRepository(gormDB)
	ticketRepo := chatrepo.NewTicketRepository(pool)
	userRepo := chatrepo.NewUserRepository(pool)
	presence := rtrepo.NewPresenceRepository(redisClient, cfg.PresenceTTL)

	registry := rtapp.NewRegistry(verifier, presence)
	notifier := rtapp.NewNotifier(registry)
	typing := rtapp.NewTypingTracker(notifier, cfg.TypingIdle)
	defer typing.Stop()

	chatUC := chatapp.NewChatUseCase(msgRepo, ticketRepo, userRepo, notifier)
	wsHandler := rtapp.NewWebsocketHandler(registry, notifier, typing, chatUC)

	r := fiber.New()
	file, err := os.OpenFile(fmt.Sprintf("%s/access.log", config.EnvConfig.RealtimeLogPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	r.Use(fiber_log.New(fiber_log.Config{
		Output: file,
	}))

	router.RegisterRoutes(r, verifier, wsHandler, chathandlers.NewChatHandler(chatUC), registry, presence)

	port := ":" + cfg.Port
	logger.Log.Info("Realtime Service listening on " + port)
	if err := r.Listen(port); err != nil {
		logger.Log.Fatal("Failed to start Fiber", zap.Error(err))
	}
}
