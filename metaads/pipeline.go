package metaads

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/campaign-os/assistant/config"
)

// Pipeline runs the full fetch-and-materialize sequence: list ads, enrich,
// collect media references, resolve, download, group and flatten.
type Pipeline struct {
	Client       *Client
	Materializer *Materializer
	OutputDir    string
	Resolver     ResolverOptions
}

func NewPipeline() *Pipeline {
	return &Pipeline{
		Client:       NewClient(),
		Materializer: NewMaterializer(config.MediaDir),
		OutputDir:    config.DataDir,
	}
}

// RunResult summarizes one pipeline run for logging and alerting.
type RunResult struct {
	Ads       int
	Campaigns int
	Media     MediaCounts
	Rows      []FlatRow
	Hierarchy Hierarchy
	Elapsed   time.Duration
	// Partial is set when pagination gave up early but earlier pages were
	// still processed.
	Partial bool
}

// Run executes the stages in order. A fetch failure after zero pages is
// fatal; a failure with partial pages processes what arrived and marks the
// result partial.
func (p *Pipeline) Run(ctx context.Context) (*RunResult, error) {
	start := time.Now()
	res := &RunResult{}

	log.Printf("[pipeline] fetching ads")
	ads, err := p.Client.FetchAds(ctx)
	if err != nil {
		if len(ads) == 0 {
			return nil, fmt.Errorf("fetching ads: %w", err)
		}
		log.Printf("[pipeline] continuing with %d ads after fetch error: %v", len(ads), err)
		res.Partial = true
	}
	res.Ads = len(ads)

	log.Printf("[pipeline] enriching %d ads", len(ads))
	p.Client.EnrichAds(ctx, ads)

	log.Printf("[pipeline] collecting media references")
	refs := CollectMediaRefs(ads)
	log.Printf("[pipeline] %d image hashes, %d video ids", len(refs.ImageHashes), len(refs.VideoIDs))

	log.Printf("[pipeline] resolving media")
	images := p.Client.ResolveImageURLs(ctx, refs.ImageHashes, p.Resolver)
	videos := p.Client.ResolveVideoURLs(ctx, refs.VideoIDs, p.Resolver)

	log.Printf("[pipeline] downloading media")
	res.Media = p.Materializer.InjectMedia(ctx, ads, images, videos)

	log.Printf("[pipeline] building hierarchy")
	res.Hierarchy = BuildHierarchy(ads)
	res.Campaigns = len(res.Hierarchy)

	log.Printf("[pipeline] flattening")
	res.Rows = Flatten(res.Hierarchy)

	if p.OutputDir != "" {
		if err := WriteJSON(res.Hierarchy, filepath.Join(p.OutputDir, "dataset.json")); err != nil {
			return res, err
		}
		if err := WriteCSV(res.Rows, filepath.Join(p.OutputDir, "ads_flattened.csv")); err != nil {
			return res, err
		}
	}

	res.Elapsed = time.Since(start)
	log.Printf("[pipeline] done: %d ads, %d campaigns, %d rows in %s",
		res.Ads, res.Campaigns, len(res.Rows), res.Elapsed.Round(time.Millisecond))
	return res, nil
}
