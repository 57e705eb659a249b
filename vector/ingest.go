package vector

import (
	"context"
	"log"
	"strings"

	"github.com/campaign-os/assistant/ad"
	"github.com/campaign-os/assistant/config"
)

// Ingestor turns stored ad rows into pattern vectors. The function fields
// default to the real Gemini/Qdrant calls and are swappable in tests.
type Ingestor struct {
	BatchSize int
	Embed     func(texts []string) ([][]float32, error)
	Upsert    func(adIDs []string, embeddings [][]float32, payloads []map[string]interface{}) error
	Caption   func(ctx context.Context, source string) (string, error)
	Mark      func(adID string) error
	Delete    func(adID string) error
}

func NewIngestor() *Ingestor {
	return &Ingestor{
		BatchSize: config.QdrantUpsertBatchSize,
		Embed:     EmbedTexts,
		Upsert:    UpsertPatterns,
		Caption:   CaptionImage,
		Mark:      ad.MarkAsHavingVector,
		Delete:    DeletePattern,
	}
}

// IngestStats summarizes one ingest run.
type IngestStats struct {
	Indexed    int
	Skipped    int
	Failed     int
	Captioned  int
	Batches    int
	BadBatches int
}

// IngestAds embeds and upserts ads in batches. A failed embed or upsert
// drops only its batch; captioning failures drop only the caption. Rows with
// no usable text are skipped. Successfully indexed rows are marked so the
// next run does not repeat them.
func (ing *Ingestor) IngestAds(ctx context.Context, ads []*ad.Ad) IngestStats {
	var stats IngestStats

	for start := 0; start < len(ads); start += ing.BatchSize {
		end := start + ing.BatchSize
		if end > len(ads) {
			end = len(ads)
		}
		ing.ingestBatch(ctx, ads[start:end], &stats)
		stats.Batches++
	}

	log.Printf("[ingest] done: %d indexed, %d skipped, %d failed, %d captioned, %d/%d batches ok",
		stats.Indexed, stats.Skipped, stats.Failed, stats.Captioned, stats.Batches-stats.BadBatches, stats.Batches)
	return stats
}

func (ing *Ingestor) ingestBatch(ctx context.Context, batch []*ad.Ad, stats *IngestStats) {
	var (
		ids      []string
		texts    []string
		payloads []map[string]interface{}
	)

	for _, a := range batch {
		caption := ing.captionFor(ctx, a, stats)
		text := BuildPatternText(a, caption)
		if NormalizeAdText(a.CopyText) == "" && caption == "" {
			stats.Skipped++
			log.Printf("[ingest] ad %s has no copy or caption, skipping", a.AdID)
			// a previous run may have indexed this ad before its copy was blanked
			if ing.Delete != nil {
				if err := ing.Delete(a.AdID); err != nil {
					log.Printf("[ingest] removing stale vector for ad %s: %v", a.AdID, err)
				}
			}
			continue
		}
		ids = append(ids, a.AdID)
		texts = append(texts, text)
		payloads = append(payloads, BuildPayload(a, text))
	}
	if len(ids) == 0 {
		return
	}

	embeddings, err := ing.Embed(texts)
	if err != nil {
		stats.Failed += len(ids)
		stats.BadBatches++
		log.Printf("[ingest] embedding batch of %d failed: %v", len(ids), err)
		return
	}
	if err := ing.Upsert(ids, embeddings, payloads); err != nil {
		stats.Failed += len(ids)
		stats.BadBatches++
		log.Printf("[ingest] upserting batch of %d failed: %v", len(ids), err)
		return
	}

	for _, id := range ids {
		if err := ing.Mark(id); err != nil {
			log.Printf("[ingest] marking ad %s: %v", id, err)
		}
	}
	stats.Indexed += len(ids)
}

// captionFor picks the first local image (falling back to the remote URL)
// and captions it. Video-only and imageless ads get no caption.
func (ing *Ingestor) captionFor(ctx context.Context, a *ad.Ad, stats *IngestStats) string {
	source := firstImageSource(a)
	if source == "" || ing.Caption == nil {
		return ""
	}
	caption, err := ing.Caption(ctx, source)
	if err != nil {
		return ""
	}
	stats.Captioned++
	return caption
}

func firstImageSource(a *ad.Ad) string {
	if a.ImagePaths != "" {
		if first := strings.SplitN(a.ImagePaths, ",", 2)[0]; first != "" {
			return first
		}
	}
	return a.RemoteImageURL
}
