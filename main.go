package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"room-service/internal/cleanup"
	"room-service/internal/config"
	"room-service/internal/db"
	"room-service/internal/feed"
	"room-service/internal/handlers"
	"room-service/internal/identity"
	"room-service/internal/middleware"
	"room-service/internal/notifier"
	"room-service/internal/observability"
	"room-service/internal/rabbitmq"
	"room-service/internal/repositories"
	"room-service/internal/telemetry"
	"room-service/internal/tracing"
	"room-service/internal/ws"
)

const serviceName = "room-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.Init(ctx, serviceName, cfg.Environment, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("failed to init tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Printf("tracing shutdown error: %v", err)
		}
	}()

	database, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	var changeNotifier notifier.Notifier
	if cfg.RedisAddr != "" {
		redisNotifier, err := notifier.NewRedisNotifier(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		changeNotifier = redisNotifier
		log.Printf("change notifications via redis addr=%s", cfg.RedisAddr)
	} else {
		changeNotifier = notifier.NewMemoryNotifier()
		log.Println("change notifications in-process only")
	}
	defer changeNotifier.Close()

	eventPublisher, err := observability.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		log.Printf("ws event publishing disabled: %v", err)
	} else {
		observability.SetPublisher(eventPublisher)
		defer eventPublisher.Close()
	}

	auditPublisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer auditPublisher.Close()
	log.Printf("audit publisher mode=%s", rabbitmq.PublisherMode(auditPublisher))
	emitter := telemetry.NewAuditEmitter(auditPublisher, "audit.rooms", serviceName, cfg.Environment)

	provider := identity.NewClient(cfg.IdentityEndpoint, cfg.IdentityProjectID, cfg.IdentityAPIKey)

	roomRepo := repositories.NewRoomRepo(database)
	messageRepo := repositories.NewMessageRepo(database)

	hub := ws.NewHub()

	sweeper := cleanup.NewSweeper(roomRepo, messageRepo, emitter)
	go sweeper.Run(ctx, cfg.SweepInterval)

	refresher := feed.NewRefresher(changeNotifier, messageRepo, hub)
	go func() {
		if err := refresher.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("feed refresher stopped: %v", err)
		}
	}()

	roomHandler := handlers.NewRoomHandler(roomRepo, messageRepo, changeNotifier, hub, emitter)
	messageHandler := handlers.NewMessageHandler(roomRepo, messageRepo, changeNotifier, hub)
	profileHandler := handlers.NewProfileHandler(provider)
	cleanupHandler := handlers.NewCleanupHandler(sweeper)
	roomWS := ws.NewRoomWebSocketHandler(hub, roomRepo, provider)

	router := gin.Default()

	// middlewares
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(provider)

	router.GET("/rooms", authMiddleware, roomHandler.ListRooms)
	router.POST("/rooms", authMiddleware, roomHandler.CreateRoom)
	router.GET("/rooms/:room_id", authMiddleware, roomHandler.GetRoom)
	router.DELETE("/rooms/:room_id", authMiddleware, middleware.RequireModerator(), roomHandler.DeleteRoom)

	router.GET("/rooms/:room_id/messages", authMiddleware, messageHandler.ListMessages)
	router.POST("/rooms/:room_id/messages", authMiddleware, messageHandler.PostMessage)
	router.DELETE("/rooms/:room_id/messages/:message_id", authMiddleware, middleware.RequireModerator(), messageHandler.DeleteMessage)

	router.GET("/profile", authMiddleware, profileHandler.GetProfile)
	router.DELETE("/profile/passkeys/:passkey_id", authMiddleware, profileHandler.DeletePasskey)

	router.POST("/admin/cleanup", authMiddleware, middleware.RequireAdmin(), cleanupHandler.TriggerSweep)

	router.GET("/ws/rooms/:room_id", roomWS.Handle)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.RegisterDebugRoutes(router, emitter, cfg.Debug)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
