package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"

	"slugr/internal/api"
	"slugr/internal/api/handlers"
	"slugr/internal/engine/links"
	"slugr/internal/engine/resolve"
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
	keys := cache.NewKeys(cfg.Domains.ShortDomain)

	repo := links.NewRepository(db)
	resolver := resolve.NewService(cacheClient, keys, repo)
	tracker := visits.NewTracker(cacheClient, keys)
	flusher := visits.NewFlusher(cacheClient, repo, cfg.Flush.BatchSize)

	deps := &api.Dependencies{
		RedirectHandler: handlers.NewRedirectHandler(resolver, tracker),
		ResolveHandler:  handlers.NewResolveHandler(resolver),
		FlushHandler:    handlers.NewFlushHandler(flusher, cfg.Flush.RunTimeout),
		LinkHandler:     handlers.NewLinkHandler(repo, cacheClient, keys, tracker),
		HealthHandler:   handlers.NewHealthHandler(db, cacheClient),
		FlushToken:      cfg.Flush.Token,
	}
	router := api.NewRouter(deps)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	log.Printf("Server starting on %s", addr)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
