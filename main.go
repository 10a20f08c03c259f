package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/slotflow/chat-server/config"
	"github.com/slotflow/chat-server/gateway"
	"github.com/slotflow/chat-server/handlers"
	"github.com/slotflow/chat-server/presence"
	"github.com/slotflow/chat-server/storage"
	"github.com/slotflow/chat-server/uploads"
)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// --- Document store ---
	db, err := storage.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Error("failed to connect to mongo", "error", err)
		os.Exit(1)
	}
	defer db.Client().Disconnect(context.Background())
	if err := storage.EnsureIndexes(ctx, db); err != nil {
		log.Error("failed to ensure indexes", "error", err)
		os.Exit(1)
	}
	log.Info("connected to mongo", "db", cfg.MongoDB)

	// --- Shared presence store ---
	nc, err := nats.Connect(cfg.NatsURL)
	if err != nil {
		log.Error("failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer nc.Drain()
	js, err := jetstream.New(nc)
	if err != nil {
		log.Error("failed to create jetstream context", "error", err)
		os.Exit(1)
	}
	registry, err := presence.NewKVRegistry(ctx, js, config.PresenceBucket)
	if err != nil {
		log.Error("failed to create presence registry", "error", err)
		os.Exit(1)
	}
	log.Info("presence registry ready", "bucket", config.PresenceBucket)

	// --- Object store ---
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.S3Region))
	if err != nil {
		log.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}
	s3Client := s3.NewFromConfig(awsCfg)
	uploader := uploads.NewUploader(manager.NewUploader(s3Client), cfg.S3Bucket, cfg.ObjectStoreTimeout, log)
	presigner := uploads.NewS3Presigner(s3.NewPresignClient(s3Client), cfg.S3Bucket)
	signer := uploads.NewURLSigner(storage.NewSignedURLRepo(db), presigner, cfg.SignedURLTTL, cfg.ObjectStoreTimeout)

	// --- Gateway and handlers ---
	gw := gateway.New(registry, log)
	wsHandler := &handlers.WebSocketHandler{Gateway: gw, Log: log}
	msgHandler := handlers.NewMessageHandler(storage.NewMessageStore(db), uploader, signer, gw, log)

	app := fiber.New()
	app.Use(logger.New())

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(wsHandler.Handle))

	app.Post("/messages", msgHandler.SendMessage)
	app.Get("/conversation/:userA/:userB", msgHandler.GetConversation)

	go func() {
		log.Info("starting server", "addr", cfg.ServerAddr)
		if err := app.Listen(cfg.ServerAddr); err != nil {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	if err := app.Shutdown(); err != nil {
		log.Error("error shutting down", "error", err)
	}
	log.Info("server stopped")
}
