package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"

	"github.com/coinpulse-project/backend/internal/config"
	"github.com/coinpulse-project/backend/internal/pipeline"
	"github.com/coinpulse-project/backend/internal/services"
)

func main() {
	snapshotOnly := flag.Bool("snapshot-only", false, "refresh the current snapshot without appending history")
	flag.Parse()

	mode := services.CycleHistory
	if *snapshotOnly {
		mode = services.CycleSnapshot
	}

	log.Printf("🚀 Starting manual %s cycle from CoinGecko...", mode)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	p, err := pipeline.Build(cfg)
	if err != nil {
		log.Fatalf("failed to initialize pipeline: %v", err)
	}
	defer p.Close()

	ctx := context.Background()

	result, err := p.Ingest.RunCycle(ctx, mode)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSourceUnavailable):
			log.Printf("CoinGecko unavailable: %v", err)
		case errors.Is(err, services.ErrValidationFailed), errors.Is(err, services.ErrSourceMalformed):
			log.Printf("batch rejected: %v", err)
		default:
			log.Printf("cycle failed: %v", err)
		}
		p.Close()
		os.Exit(1)
	}

	records, err := p.Snapshot.List(ctx)
	if err == nil {
		log.Printf("✅ Snapshot holds %d records", len(records))
	} else {
		log.Printf("⚠️ Failed to read snapshot: %v", err)
	}

	log.Printf("✅ Cycle %s committed %d records at %s", result.ID, result.Records, result.CollectedAt.Format("2006-01-02T15:04:05Z07:00"))
}
