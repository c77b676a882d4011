package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/soundpool/engine/internal/client"
	"github.com/soundpool/engine/internal/config"
	"github.com/soundpool/engine/internal/distribution"
	"github.com/soundpool/engine/internal/handler"
	"github.com/soundpool/engine/internal/media"
	"github.com/soundpool/engine/internal/queue"
	"github.com/soundpool/engine/internal/store"
	"github.com/soundpool/engine/internal/worker"
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

	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis not available: %v", err)
	}

	// Database
	st, err := store.Open(cfg.Database.DSN)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	// Blob storage
	blob, err := client.NewR2Client(&cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to initialize storage client: %v", err)
	}

	tools := media.NewTools(cfg.Tools)
	buckets := worker.Buckets{
		Originals: cfg.Storage.OriginalsBucket,
		Streams:   cfg.Storage.StreamsBucket,
		Assets:    cfg.Storage.AssetsBucket,
	}

	// Queue plumbing
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	asynqClient := asynq.NewClient(redisOpt)
	defer asynqClient.Close()

	records := queue.NewRecords(redisClient, time.Duration(cfg.Jobs.RetentionHours)*time.Hour)
	manager := queue.NewManager(asynqClient, records, queue.Defaults{
		MaxAttempts: cfg.Jobs.MaxAttempts,
		Backoff: queue.BackoffSpec{
			Type:    queue.BackoffExponential,
			DelayMS: int64(cfg.Jobs.BackoffBaseMS),
		},
		Timeout:   time.Duration(cfg.Jobs.TimeoutMinutes) * time.Minute,
		Retention: time.Duration(cfg.Jobs.RetentionHours) * time.Hour,
	})

	// Worker pools
	engine := distribution.NewEngine(st)
	registry := queue.NewRegistry(redisOpt, records)
	register := func(queueName string, concurrency int, p queue.Processor) {
		if err := registry.Register(queueName, concurrency, p); err != nil {
			log.Fatalf("Failed to register %s pool: %v", queueName, err)
		}
	}
	register(queue.QueueStream, cfg.Queues.Stream, worker.NewStreamTranscodeWorker(st, blob, tools, buckets))
	register(queue.QueueDownload, cfg.Queues.Download, worker.NewDownloadTranscodeWorker(st, blob, tools, buckets))
	register(queue.QueueWaveform, cfg.Queues.Waveform, worker.NewWaveformWorker(st, blob, tools, buckets))
	register(queue.QueueLoudness, cfg.Queues.Loudness, worker.NewLoudnessWorker(st, blob, tools))
	register(queue.QueueArtwork, cfg.Queues.Artwork, worker.NewArtworkWorker(st, blob, tools, buckets))
	register(queue.QueueFingerprint, cfg.Queues.Fingerprint, worker.NewFingerprintWorker(st, blob, tools))
	register(queue.QueueDistribution, cfg.Queues.Distribution, worker.NewDistributionWorker(engine, redisClient))

	if err := registry.Start(); err != nil {
		log.Fatalf("Failed to start worker pools: %v", err)
	}

	schedulerCtx, stopScheduler := context.WithCancel(ctx)
	go scheduleDistributions(schedulerCtx, manager)

	// Health probe
	inspector := asynq.NewInspector(redisOpt)
	healthHandler := handler.NewHealthHandler(redisClient, inspector, st, registry.Queues())

	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Get("/health", healthHandler.Health)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down...")
		stopScheduler()
		registry.Shutdown()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	addr := ":" + cfg.Server.Port
	log.Printf("Engine starting on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// scheduleDistributions enqueues the previous month's distribution on the
// first of each month. Re-enqueues for an already-processed period are
// no-ops: the engine finds no eligible contributions.
func scheduleDistributions(ctx context.Context, manager *queue.Manager) {
	ticker := time.NewTicker(6 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now().UTC()
			if now.Day() != 1 {
				continue
			}
			period := now.AddDate(0, -1, 0).Format("2006-01")
			if _, err := manager.EnqueueDistribution(ctx, queue.DistributionPayload{Period: period}); err != nil {
				log.Printf("Failed to enqueue distribution for %s: %v", period, err)
			}
		}
	}
}
