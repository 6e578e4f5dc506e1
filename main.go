package main

import (
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/PostPilotHQ/PostPilot/internal/pkg/billing"
	"github.com/PostPilotHQ/PostPilot/internal/pkg/cache"
	"github.com/PostPilotHQ/PostPilot/internal/pkg/database"
	"github.com/PostPilotHQ/PostPilot/internal/pkg/env"
	"github.com/PostPilotHQ/PostPilot/internal/pkg/metrics/counter"
	"github.com/PostPilotHQ/PostPilot/internal/pkg/router"
	"github.com/PostPilotHQ/PostPilot/internal/pkg/webhook"
)

const statsFlushInterval = 60 * time.Second

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	cfg, err := webhook.LoadConfigFromEnv()
	if err != nil {
		log.Fatalf("webhook configuration invalid: %v", err)
	}

	repo := billing.NewRepository(database.GetDB())
	svc := billing.NewService(cfg.PriceTiers)
	processor := webhook.NewProcessor(cfg, repo, svc,
		webhook.WithStatsRecorder(counter.Recorder{}),
		webhook.WithDeduper(webhook.RedisDeduper{}),
	)

	// init fiber app
	app := fiber.New(fiber.Config{
		BodyLimit: 1048576, // 1 MiB, provider payloads are small
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "admin"): env.GetEnv("METRICS_PASSWORD", "test"),
		},
	}), monitor.New())

	// ROUTER
	router.InstallRouter(app, processor, repo)

	startStatsFlusher()

	return app
}

// startStatsFlusher periodically drains the Redis delivery counters into the
// daily stats table.
func startStatsFlusher() {
	go func() {
		ticker := time.NewTicker(statsFlushInterval)
		defer ticker.Stop()
		for range ticker.C {
			if err := counter.FlushAll(); err != nil {
				fiberlog.Errorf("webhook stats flush failed: %v", err)
			}
		}
	}()
}
