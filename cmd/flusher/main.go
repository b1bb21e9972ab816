package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"slugr/internal/engine/links"
	"slugr/internal/engine/visits"
	"slugr/internal/pkg/logger"
	"slugr/internal/platform/cache"
	"slugr/internal/platform/config"
	"slugr/internal/platform/database"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Logging)

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	cacheClient := cache.NewRedis(cfg.Redis)
	repo := links.NewRepository(db)
	flusher := visits.NewFlusher(cacheClient, repo, cfg.Flush.BatchSize)

	schedule := cfg.Flush.Schedule
	if schedule == "" {
		schedule = "@every 30s"
	}

	runTimeout := cfg.Flush.RunTimeout
	if runTimeout <= 0 {
		runTimeout = 50 * time.Second
	}

	log.Printf("Running visit flusher on schedule %q", schedule)

	c := cron.New()
	_, err = c.AddFunc(schedule, func() {
		// Each run is bounded and restart-safe; an overlapping fire is
		// harmless because the drain pops.
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()

		if _, err := flusher.Run(ctx); err != nil {
			log.Printf("Flush run failed: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("Invalid flush schedule %q: %v", schedule, err)
	}

	c.Start()

	// This keeps the program running
	select {}
}
