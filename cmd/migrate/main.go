package main

import (
	"flag"
	"fmt"
	"log"

	"slugr/internal/platform/config"
	"slugr/internal/platform/database"
)

const schema = `
CREATE TABLE IF NOT EXISTS links (
	id TEXT PRIMARY KEY,
	slug TEXT UNIQUE NOT NULL,
	url TEXT NOT NULL,
	description TEXT,
	expires_at INTEGER,
	visits INTEGER NOT NULL DEFAULT 0,
	last_visit INTEGER,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_links_expires_at ON links(expires_at);
`

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(schema); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	fmt.Println("Migration completed successfully")
}
