package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/songforge/api/internal/client"
	"github.com/songforge/api/internal/config"
	"github.com/songforge/api/internal/handler"
	"github.com/songforge/api/internal/media"
	"github.com/songforge/api/internal/middleware"
	"github.com/songforge/api/internal/poller"
	"github.com/songforge/api/internal/service"
	"github.com/songforge/api/internal/store"
	"github.com/songforge/api/internal/worker"
	ws "github.com/songforge/api/internal/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Test Redis connection
	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis not available: %v", err)
	}

	// Initialize Asynq client
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()

	// Initialize validator
	validate := validator.New()

	// Initialize WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	// Initialize external clients
	kieClient := client.NewKieClient(&cfg.Kie)
	if !kieClient.IsConfigured() {
		log.Println("Warning: KIE API key not configured, provider calls will fail")
	}
	fetcher := client.NewArtifactFetcher(cfg.Kie.APIKey)

	// Content directory for audio files and cover images
	contentDir := media.NewDir(cfg.Audio.Dir)

	// Initialize store and services
	st := store.NewRedisStore(redisClient)
	generationService := service.NewGenerationService(kieClient, st)
	coverService := service.NewCoverService(kieClient, fetcher, st, contentDir)
	lyricsService := service.NewLyricsService(kieClient)

	// Server-side poll loop for generation tasks
	taskPoller := poller.New(generationService, hub, time.Duration(cfg.Kie.PollInterval)*time.Second)

	// Initialize handlers
	generateHandler := handler.NewGenerateHandler(generationService, taskPoller, validate)
	coverHandler := handler.NewCoverHandler(coverService, validate)
	lyricsHandler := handler.NewLyricsHandler(lyricsService, validate)
	callbackHandler := handler.NewCallbackHandler(asynqClient)
	audioHandler := handler.NewAudioHandler(contentDir)

	// Initialize middleware
	var apiAuthMiddleware fiber.Handler
	if cfg.Gateway.Enabled {
		// Behind a proxy: auth is handled by ForwardAuth, read X-User-* headers
		log.Println("Info: Gateway mode enabled, using header-based auth")
		apiAuthMiddleware = middleware.GatewayAuthMiddleware()
	} else {
		apiAuthMiddleware = middleware.NewAuthMiddleware(cfg.JWT.Secret).Authenticate()
	}
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	isDebug := strings.EqualFold(cfg.Server.LogLevel, "debug")
	logFormat := "[${time}] ${status} - ${latency} ${method} ${path}\n"
	if isDebug {
		logFormat = "[${time}] ${status} - ${latency} ${method} ${path} ${queryParams} ${body}\n"
		log.Println("Debug logging enabled")
	}
	app.Use(logger.New(logger.Config{
		Format: logFormat,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Base URL - timestamp
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"timestamp": time.Now().Unix(),
		})
	})

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"kie":  kieClient.IsConfigured(),
				"auth": cfg.JWT.Secret != "",
			},
		})
	})

	// Provider webhook is unauthenticated, the provider cannot carry a token
	app.Post("/callback/cover", callbackHandler.Cover)

	// API routes
	api := app.Group("/api", apiAuthMiddleware)

	// Generation routes
	generate := api.Group("/generate")
	generate.Post("/", rateLimiter.GenerateLimit(cfg.RateLimit.GeneratePerHour), generateHandler.Start)
	generate.Get("/status", generateHandler.Status)
	generate.Post("/stop", generateHandler.StopPolling)

	// Cover routes
	cover := api.Group("/cover", rateLimiter.CoverLimit(cfg.RateLimit.CoverPerHour))
	cover.Post("/generate", coverHandler.Generate)

	// Lyrics routes
	lyrics := api.Group("/lyrics", rateLimiter.LyricsLimit(cfg.RateLimit.LyricsPerMin))
	lyrics.Post("/generate", lyricsHandler.Generate)
	lyrics.Post("/timestamped", lyricsHandler.Timestamped)

	// Saved audio and cover files
	api.Get("/audio/:filename", audioHandler.GetFile)

	// WebSocket routes
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/generations/:taskId", websocket.New(func(c *websocket.Conn) {
		taskID := c.Params("taskId")
		hub.HandleConnection(c, taskID)
	}))

	// Start Asynq worker server for cover callbacks
	workerSrv := newWorkerServer(cfg)
	coverWorker := worker.NewCoverWorker(coverService)
	mux := asynq.NewServeMux()
	mux.HandleFunc(service.TaskTypeCoverCallback, coverWorker.ProcessTask)
	go func() {
		if err := workerSrv.Run(mux); err != nil {
			log.Printf("Asynq worker error: %v", err)
		}
	}()

	// Graceful shutdown: stop poll loops, drain in-flight cover workers,
	// then close the HTTP server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		taskPoller.StopAll()
		workerSrv.Shutdown()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// Start server
	addr := ":" + cfg.Server.Port
	log.Printf("Server starting on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func newWorkerServer(cfg *config.Config) *asynq.Server {
	asynqLogLevel := asynq.InfoLevel
	if strings.EqualFold(cfg.Server.LogLevel, "debug") {
		asynqLogLevel = asynq.DebugLevel
	} else if strings.EqualFold(cfg.Server.LogLevel, "warn") {
		asynqLogLevel = asynq.WarnLevel
	} else if strings.EqualFold(cfg.Server.LogLevel, "error") {
		asynqLogLevel = asynq.ErrorLevel
	}

	return asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"covers": 10,
			},
			LogLevel: asynqLogLevel,
		},
	)
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "SERVICE_ERROR",
			"message": message,
		},
	})
}
