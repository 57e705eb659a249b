package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/campaign-os/assistant/ad"
	"github.com/campaign-os/assistant/b2util"
	"github.com/campaign-os/assistant/config"
	"github.com/campaign-os/assistant/db"
	"github.com/campaign-os/assistant/metaads"
	"github.com/campaign-os/assistant/notification"
)

// fetch runs the full ingestion pipeline: pull every ad from the platform,
// resolve and download its media, and store the flattened rows.
func main() {
	if err := config.ValidateIngest(); err != nil {
		log.Fatalf("[fetch] %v", err)
	}
	if err := os.MkdirAll(config.DataDir, 0o755); err != nil {
		log.Fatalf("[fetch] %v", err)
	}
	if err := db.Init(config.DatabaseURL); err != nil {
		log.Fatalf("[fetch] %v", err)
	}
	defer db.Close()
	if err := ad.EnsureSchema(); err != nil {
		log.Fatalf("[fetch] %v", err)
	}
	if err := b2util.Init(); err != nil {
		log.Fatalf("[fetch] %v", err)
	}
	notification.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeline := metaads.NewPipeline()
	if b2util.Configured() {
		pipeline.Materializer.Uploader = b2util.Uploader{}
	}

	result, err := pipeline.Run(ctx)
	if err != nil {
		notification.NotifyRunFailed(err)
		log.Fatalf("[fetch] pipeline failed: %v", err)
	}

	if err := ad.UpsertFlatRows(result.Rows); err != nil {
		notification.NotifyRunFailed(err)
		log.Fatalf("[fetch] storing rows: %v", err)
	}

	notification.NotifyRunComplete(result.Ads, result.Campaigns, result.Partial)
	log.Printf("[fetch] run finished: %d ads, %d campaigns, partial=%v", result.Ads, result.Campaigns, result.Partial)
}
