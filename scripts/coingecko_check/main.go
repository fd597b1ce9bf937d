package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/coinpulse-project/backend/internal/coingecko"
	"github.com/coinpulse-project/backend/internal/config"
	"github.com/coinpulse-project/backend/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Display provider settings (without showing the key)
	fmt.Println("=== CoinGecko Check ===")
	fmt.Printf("Base URL: %s\n", cfg.CoinGecko.BaseURL)
	fmt.Printf("API Key: %s\n", statusString(cfg.CoinGecko.APIKey != ""))
	fmt.Printf("Batch size: %d (%s)\n", cfg.Ingest.BatchSize, cfg.CoinGecko.VsCurrency)
	fmt.Println()

	client := coingecko.NewClient(cfg)

	// Test 1: fetch one batch exactly as the scheduler would
	fmt.Println("Test 1: Fetching top coins by market cap...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	markets, err := client.GetMarkets(ctx, coingecko.TopByMarketCap(cfg.CoinGecko.VsCurrency, cfg.Ingest.BatchSize))
	if err != nil {
		var statusErr *coingecko.StatusError
		switch {
		case errors.As(err, &statusErr) && (statusErr.StatusCode == 401 || statusErr.StatusCode == 403):
			fmt.Printf("❌ Request rejected: %v\n", err)
			fmt.Println("   The API key is invalid or belongs to a different plan (check COINGECKO_URL)")
		case errors.As(err, &statusErr) && statusErr.StatusCode == 429:
			fmt.Printf("❌ Rate limited: %v\n", err)
			fmt.Println("   Lower COINGECKO_RATE_PER_MIN or wait a minute")
		case errors.Is(err, coingecko.ErrMalformed):
			fmt.Printf("❌ Response did not decode: %v\n", err)
		default:
			fmt.Printf("❌ Request failed: %v\n", err)
		}
		os.Exit(1)
	}
	fmt.Printf("✅ Received %d entries\n", len(markets))
	fmt.Println()

	// Test 2: run the batch through the same validation the pipeline uses
	fmt.Println("Test 2: Validating batch...")
	for _, m := range markets {
		if missing := m.MissingFields(); len(missing) > 0 {
			fmt.Printf("⚠️  %q is missing %s\n", m.ID, strings.Join(missing, ", "))
		}
	}

	records, err := services.NormalizeBatch(markets, cfg.Ingest.BatchSize)
	if err != nil {
		fmt.Printf("❌ Batch would be rejected: %v\n", err)
		os.Exit(1)
	}

	for i, r := range records {
		fmt.Printf("  %2d. %-12s %-8s %14.4f  cap %.0f\n", i+1, r.EntityID, strings.ToUpper(r.Symbol), r.Price, r.MarketCap)
	}

	fmt.Println()
	fmt.Println("=== Summary ===")
	fmt.Println("✅ CoinGecko is reachable and the batch passes validation")
}

func statusString(set bool) string {
	if set {
		return "[SET]"
	}
	return "[NOT SET]"
}
