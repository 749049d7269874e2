package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/talktotext/talktotext/internal/blobstore"
	"github.com/talktotext/talktotext/internal/cleanup"
	"github.com/talktotext/talktotext/internal/config"
	"github.com/talktotext/talktotext/internal/handlers"
	"github.com/talktotext/talktotext/internal/media"
	"github.com/talktotext/talktotext/internal/notify"
	"github.com/talktotext/talktotext/internal/queue"
	"github.com/talktotext/talktotext/internal/summarize"
	"github.com/talktotext/talktotext/internal/transcription"
	"github.com/talktotext/talktotext/pkg/executor"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to configuration file")
	flag.Parse()

	// Secrets come from the environment; .env is optional in production.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on process environment")
	}
	openaiKey := os.Getenv("OPENAI_KEY")
	if openaiKey == "" {
		log.Fatal("OPENAI_KEY is not set")
	}
	sendgridKey := os.Getenv("SENDGRID_KEY")
	if sendgridKey == "" {
		log.Fatal("SENDGRID_KEY is not set")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Ensure directories exist
	if err := cleanup.EnsureScratchDirExists(cfg.Storage.ScratchDir); err != nil {
		log.Fatalf("Failed to create scratch directory: %v", err)
	}

	// Initialize components
	log.Println("Initializing components...")

	store, err := blobstore.New(cfg.Storage.Database, cfg.Storage.BlobDir)
	if err != nil {
		log.Fatalf("Failed to initialize blob store: %v", err)
	}
	defer store.Close()

	exec := executor.New()
	converter := media.NewConverter(exec, int64(cfg.Limits.MaxFileSizeMB)*1024*1024)
	segmenter := media.NewSegmenter(exec)

	transcriber := transcription.NewOpenAIClient(
		openaiKey,
		cfg.Transcription.Model,
		time.Duration(cfg.Transcription.RequestTimeoutSeconds)*time.Second,
	)
	summarizer := summarize.NewSummarizer(
		summarize.NewOpenAIAnalyzer(openaiKey, cfg.Analysis.Model),
		cfg.Summarizer.ChunkChars,
	)
	dispatcher := notify.NewDispatcher(
		notify.NewSendGridSender(sendgridKey),
		cfg.Mail.FromAddress,
		cfg.Server.PublicBaseURL,
	)

	// Worker pool
	workerPool := queue.NewWorkerPool(queue.PoolConfig{
		Workers:      cfg.Workers.Count,
		Converter:    converter,
		Segmenter:    segmenter,
		Transcriber:  transcriber,
		Summarizer:   summarizer,
		Dispatcher:   dispatcher,
		ScratchDir:   cfg.Storage.ScratchDir,
		ChunkSeconds: cfg.Segmenter.ChunkSeconds,
		MaxAttempts:  cfg.Transcription.MaxAttempts,
		ChunkWorkers: cfg.Transcription.ChunkWorkers,
	})
	workerPool.Start()

	// Cleanup scheduler
	cleanupScheduler := cleanup.NewScheduler(
		cfg.Storage.ScratchDir,
		store,
		cfg.Cleanup.IntervalMinutes,
		cfg.Cleanup.MaxAgeHours,
	)
	cleanupScheduler.Start()
	defer cleanupScheduler.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit: cfg.Limits.MaxFileSizeMB * 1024 * 1024,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.RateLimit.PerMinute,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(429).JSON(fiber.Map{
				"error": "Rate limit exceeded, try again later",
			})
		},
	}))

	// Initialize handlers
	transcribeHandler := handlers.NewTranscribeHandler(store, dispatcher, cfg.Limits.MaxFileSizeMB)
	validateHandler := handlers.NewValidateHandler(store, workerPool, cfg.Storage.ScratchDir)

	// Routes
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	app.Post("/transcribe", transcribeHandler.Handle)
	app.Get("/:token/validate", validateHandler.Handle)

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Server starting on %s", addr)
	log.Println("Endpoints:")
	log.Println("   POST /transcribe        - Upload a recording + email")
	log.Println("   GET  /:token/validate   - Confirm a pending upload")
	log.Println("   GET  /health            - Health check")

	// Graceful shutdown
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Println("Shutting down gracefully...")
		app.Shutdown()
	}()

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
