package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/xavisolis/nutmeglocal/internal/config"
	"github.com/xavisolis/nutmeglocal/internal/database"
	"github.com/xavisolis/nutmeglocal/internal/geocode"
	"github.com/xavisolis/nutmeglocal/internal/repository"
	"github.com/xavisolis/nutmeglocal/internal/service"
)

func main() {
	file := flag.String("file", "", "path to the listings CSV")
	replace := flag.Bool("replace", false, "delete every unclaimed business before importing")
	emailsOut := flag.String("emails-out", "", "write the imported business emails to this file")
	batchDelay := flag.Duration("batch-delay", 100*time.Millisecond, "pause between geocoding batches")
	timeout := flag.Duration("timeout", 10*time.Minute, "overall import timeout")
	flag.Parse()

	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer pool.Close()

	if cfg.AutoMigrate {
		if err := database.EnsureSchema(ctx, pool); err != nil {
			log.Fatalf("failed to apply schema: %v", err)
		}
	}

	var (
		geocoder geocode.Geocoder
		mapbox   *geocode.MapboxClient
	)
	if cfg.MapboxToken != "" {
		mapbox = geocode.NewMapboxClient(&http.Client{Timeout: 15 * time.Second}, cfg.MapboxBaseURL, cfg.MapboxToken)
		geocoder = mapbox
	} else {
		log.Printf("MAPBOX_TOKEN not set; every listing falls back to its town centre")
	}

	f, err := os.Open(*file)
	if err != nil {
		log.Fatalf("failed to open %s: %v", *file, err)
	}
	defer f.Close()

	importer := service.NewImportService(
		repository.NewPGXCategoriesRepository(pool),
		repository.NewPGXBusinessesRepository(pool),
		service.NewContactNormalizer("US"),
		geocoder,
		*batchDelay,
	)

	summary, err := importer.Import(ctx, f, service.ImportOptions{ReplaceUnclaimed: *replace})
	if err != nil {
		log.Fatalf("import failed: %v", err)
	}

	log.Printf("import complete deleted=%d inserted=%d skipped=%d geocoded=%d fallback=%d emails=%d",
		summary.Deleted, summary.Inserted, summary.Skipped, summary.Geocoded, summary.Fallback, len(summary.Emails))
	if mapbox != nil {
		hits, misses := mapbox.Stats()
		log.Printf("geocode cache hits=%d misses=%d", hits, misses)
	}

	if *emailsOut != "" {
		content := strings.Join(summary.Emails, "\n")
		if content != "" {
			content += "\n"
		}
		if err := os.WriteFile(*emailsOut, []byte(content), 0o644); err != nil {
			log.Fatalf("failed to write %s: %v", *emailsOut, err)
		}
		log.Printf("wrote %d emails to %s", len(summary.Emails), *emailsOut)
	}
}
