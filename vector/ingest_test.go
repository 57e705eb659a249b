package vector

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campaign-os/assistant/ad"
)

func fakeIngestor() (*Ingestor, *ingestRecorder) {
	rec := &ingestRecorder{}
	ing := &Ingestor{
		BatchSize: 2,
		Embed: func(texts []string) ([][]float32, error) {
			rec.embedBatches = append(rec.embedBatches, len(texts))
			out := make([][]float32, len(texts))
			for i := range out {
				out[i] = []float32{0.1, 0.2}
			}
			return out, nil
		},
		Upsert: func(ids []string, embeddings [][]float32, payloads []map[string]interface{}) error {
			rec.upserted = append(rec.upserted, ids...)
			return nil
		},
		Caption: func(ctx context.Context, source string) (string, error) {
			rec.captioned = append(rec.captioned, source)
			return "caption", nil
		},
		Mark: func(adID string) error {
			rec.marked = append(rec.marked, adID)
			return nil
		},
		Delete: func(adID string) error {
			rec.deleted = append(rec.deleted, adID)
			return nil
		},
	}
	return ing, rec
}

type ingestRecorder struct {
	embedBatches []int
	upserted     []string
	captioned    []string
	marked       []string
	deleted      []string
}

func storedAds(n int) []*ad.Ad {
	ads := make([]*ad.Ad, n)
	for i := range ads {
		ads[i] = &ad.Ad{
			AdID:           fmt.Sprintf("%d", 1000+i),
			CopyText:       "Buy now and save",
			FormatCategory: "Static Image",
			ImagePaths:     fmt.Sprintf("data/media/img_%d.jpg", i),
		}
	}
	return ads
}

func TestIngestAdsBatches(t *testing.T) {
	ing, rec := fakeIngestor()
	stats := ing.IngestAds(context.Background(), storedAds(5))

	assert.Equal(t, 5, stats.Indexed)
	assert.Equal(t, 3, stats.Batches, "ceil(5/2)")
	assert.Equal(t, []int{2, 2, 1}, rec.embedBatches)
	assert.Len(t, rec.marked, 5)
	assert.Equal(t, 5, stats.Captioned)
}

func TestIngestAdsBatchFailureIsolation(t *testing.T) {
	ing, rec := fakeIngestor()
	var call int
	ing.Embed = func(texts []string) ([][]float32, error) {
		call++
		if call == 2 {
			return nil, fmt.Errorf("quota exceeded")
		}
		out := make([][]float32, len(texts))
		for i := range out {
			out[i] = []float32{0.5}
		}
		return out, nil
	}

	stats := ing.IngestAds(context.Background(), storedAds(5))

	assert.Equal(t, 3, stats.Indexed, "batches 1 and 3 survive")
	assert.Equal(t, 2, stats.Failed)
	assert.Equal(t, 1, stats.BadBatches)
	assert.Equal(t, []string{"1000", "1001", "1004"}, rec.upserted)
	assert.Len(t, rec.marked, 3, "failed rows stay unmarked for the next run")
}

func TestIngestAdsSkipsEmptyRows(t *testing.T) {
	ing, rec := fakeIngestor()
	ing.Caption = func(ctx context.Context, source string) (string, error) {
		return "", fmt.Errorf("caption unavailable")
	}
	ads := storedAds(2)
	ads[1].CopyText = "  "
	ads[1].ImagePaths = ""
	ads[1].RemoteImageURL = ""

	stats := ing.IngestAds(context.Background(), ads)

	assert.Equal(t, 1, stats.Indexed)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 0, stats.Captioned, "caption failure degrades to no caption")
	assert.Equal(t, []string{"1000"}, rec.upserted)
	assert.Equal(t, []string{"1001"}, rec.deleted, "skipped rows drop any stale vector")
}

func TestIngestAdsCaptionSourcePreference(t *testing.T) {
	ing, rec := fakeIngestor()
	ads := []*ad.Ad{
		{AdID: "1", CopyText: "copy", ImagePaths: "local.jpg,second.jpg", RemoteImageURL: "https://b2/x.jpg"},
		{AdID: "2", CopyText: "copy", RemoteImageURL: "https://b2/y.jpg"},
		{AdID: "3", CopyText: "copy"},
	}
	ing.IngestAds(context.Background(), ads)

	require.Len(t, rec.captioned, 2)
	assert.Equal(t, "local.jpg", rec.captioned[0], "first local image wins")
	assert.Equal(t, "https://b2/y.jpg", rec.captioned[1], "remote url is the fallback")
}
