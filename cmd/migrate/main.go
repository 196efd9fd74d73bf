package main

import (
	"context"
	"log"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/tewans-kitchen/pos/internal/config"
	pgexport "github.com/tewans-kitchen/pos/internal/export/postgres"
)

var (
	configPath = kingpin.Flag("config", "Path to the application config file").Short('c').Default("config.yml").String()
	dbURL      = kingpin.Flag("database-url", "Postgres URL; overrides export.postgres.url").Envar("DATABASE_URL").String()
	timeout    = kingpin.Flag("timeout", "Time allowed for connecting and migrating").Default("30s").Duration()
)

func main() {
	kingpin.Parse()

	cfg, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	url := cfg.Export.Postgres.URL
	if *dbURL != "" {
		url = *dbURL
	}
	if url == "" {
		log.Fatal("No database URL: set export.postgres.url or --database-url")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	start := time.Now()
	pool, err := pgexport.Connect(ctx, url)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	if err := pgexport.Migrate(ctx, pool); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Printf("Export schema ready (%s)", time.Since(start).Round(time.Millisecond))
}
