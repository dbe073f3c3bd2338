package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"renewables-pnl/internal/config"
	"renewables-pnl/internal/data"
	"renewables-pnl/internal/normalize"
)

// Saves Grid Status hub price series to disk so `cli settle --hub` can reconcile offline
// payloads against them.
func main() {
	var (
		datasetID = flag.String("dataset-id", "ercot_spp_real_time_15_min", "Grid Status dataset ID")
		hubs      = flag.String("hubs", "HB_WEST", "Comma-separated hub location IDs")
		outputDir = flag.String("output", "./data/hubs", "Directory to write <hub>.json files into")
		days      = flag.Int("days", 3, "Number of days to look back")
		keyEnv    = flag.String("key-env", "GRIDSTATUS_API_KEY", "Environment variable holding the API key")
	)
	flag.Parse()

	if err := config.LoadEnv(); err != nil {
		log.Fatalf("Failed to load .env: %v", err)
	}
	apiKey := config.Secret(*keyEnv)
	if apiKey == "" {
		log.Fatalf("%s environment variable is required", *keyEnv)
	}
	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	client := data.NewGridStatusClient(apiKey, data.ClientOptions{Timeout: 60 * time.Second, RequestsPerSecond: 1})

	end := time.Now()
	start := end.AddDate(0, 0, -*days)
	fmt.Printf("Fetching %s from %s to %s\n", *datasetID, start.Format("2006-01-02"), end.Format("2006-01-02"))

	ctx := context.Background()
	failed := 0
	for _, hub := range strings.Split(*hubs, ",") {
		hub = strings.TrimSpace(hub)
		if hub == "" {
			continue
		}
		resp, err := client.QueryLocation(ctx, data.QueryLocationParams{
			DatasetID:  *datasetID,
			LocationID: hub,
			StartTime:  start,
			EndTime:    end,
			Timezone:   "market",
		})
		if err != nil {
			fmt.Printf("  Warning: failed to query %s: %v\n", hub, err)
			failed++
			continue
		}

		raw, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			log.Fatalf("Failed to encode %s: %v", hub, err)
		}
		path := filepath.Join(*outputDir, hub+".json")
		if err := os.WriteFile(path, raw, 0o644); err != nil {
			log.Fatalf("Failed to write %s: %v", path, err)
		}

		points := normalize.GridStatusPrices(resp, hub)
		if len(points) == 0 {
			fmt.Printf("  No prices for %s in date range\n", hub)
			continue
		}
		fmt.Printf("  Saved %d prices for %s (%s .. %s) to %s\n",
			len(points), hub,
			points[0].Instant.Format(time.RFC3339), points[len(points)-1].Instant.Format(time.RFC3339), path)
	}
	if failed > 0 {
		os.Exit(1)
	}
}
