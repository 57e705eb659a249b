package main

import (
	"context"
	"flag"
	"log"

	"github.com/campaign-os/assistant/ad"
	"github.com/campaign-os/assistant/config"
	"github.com/campaign-os/assistant/db"
	"github.com/campaign-os/assistant/vector"
)

// ingest embeds stored ads into the pattern index: caption, build pattern
// text, batch-embed, upsert.
func main() {
	limit := flag.Int("limit", 1000, "maximum ads to index this run")
	flag.Parse()

	if config.QdrantHost == "" || config.GeminiAPIKey == "" {
		log.Fatalf("[ingest] missing QDRANT_HOST or GEMINI_API_KEY")
	}
	if err := db.Init(config.DatabaseURL); err != nil {
		log.Fatalf("[ingest] %v", err)
	}
	defer db.Close()
	if err := ad.EnsureSchema(); err != nil {
		log.Fatalf("[ingest] %v", err)
	}
	if err := vector.InitQdrant(); err != nil {
		log.Fatalf("[ingest] %v", err)
	}
	if err := vector.InitGemini(); err != nil {
		log.Fatalf("[ingest] %v", err)
	}

	ads, err := ad.GetAdsWithoutVectors(*limit)
	if err != nil {
		log.Fatalf("[ingest] %v", err)
	}
	if len(ads) == 0 {
		log.Printf("[ingest] nothing to index")
		return
	}
	log.Printf("[ingest] indexing %d ads", len(ads))

	stats := vector.NewIngestor().IngestAds(context.Background(), ads)
	if stats.Failed > 0 {
		log.Printf("[ingest] %d ads failed and will be retried next run", stats.Failed)
	}
}
