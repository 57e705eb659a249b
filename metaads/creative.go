package metaads

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/campaign-os/assistant/config"
)

const creativeFields = "title,body,image_hash,image_url,thumbnail_url,asset_feed_spec,object_story_spec"

const insightsFields = "spend,impressions,clicks,ctr,cpc,cpm,actions,purchase_roas"

// fetchObject retries a single-object detail fetch a few times with a fixed
// delay. These fetches are best-effort; the caller decides what a miss means.
func (c *Client) fetchObject(ctx context.Context, objectID, fields string, out interface{}) error {
	params := url.Values{}
	params.Set("fields", fields)
	reqURL := c.objectURL(objectID, params)

	var lastErr error
	for attempt := 1; attempt <= config.MetaDetailRetries; attempt++ {
		body, status, err := c.get(ctx, reqURL)
		switch {
		case err != nil:
			lastErr = err
		case status >= 400:
			lastErr = fmt.Errorf("status %d: %s", status, truncate(body, 200))
		default:
			if err := json.Unmarshal(body, out); err != nil {
				lastErr = fmt.Errorf("decoding %s: %w", objectID, err)
				break
			}
			return nil
		}
		if attempt < config.MetaDetailRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(config.MetaPageRetryDelay):
			}
		}
	}
	return lastErr
}

// FetchCreative loads the full creative for one ad.
func (c *Client) FetchCreative(ctx context.Context, adID string) (*Creative, error) {
	var wrapper struct {
		Creative *Creative `json:"creative"`
	}
	if err := c.fetchObject(ctx, adID, "creative{"+creativeFields+"}", &wrapper); err != nil {
		return nil, err
	}
	if wrapper.Creative == nil {
		return nil, fmt.Errorf("ad %s has no creative", adID)
	}
	return wrapper.Creative, nil
}

// FetchInsights loads the insights envelope for one ad.
func (c *Client) FetchInsights(ctx context.Context, adID string) (*Insights, error) {
	var wrapper struct {
		Insights Insights `json:"insights"`
	}
	if err := c.fetchObject(ctx, adID, "insights{"+insightsFields+"}", &wrapper); err != nil {
		return nil, err
	}
	return &wrapper.Insights, nil
}

// EnrichAds fills in creatives and insights the listing projection left empty
// and stamps every ad's format category. Per-ad fetch failures are logged and
// the ad keeps whatever it already had.
func (c *Client) EnrichAds(ctx context.Context, ads []*Ad) {
	var creativeMisses, insightMisses int
	for _, ad := range ads {
		if ctx.Err() != nil {
			return
		}
		if ad.Creative == nil {
			cr, err := c.FetchCreative(ctx, ad.ID)
			if err != nil {
				creativeMisses++
				log.Printf("[metaads] creative fetch failed for ad %s: %v", ad.ID, err)
			} else {
				ad.Creative = cr
			}
		}
		if ad.InsightEntry() == nil {
			ins, err := c.FetchInsights(ctx, ad.ID)
			if err != nil {
				insightMisses++
				log.Printf("[metaads] insights fetch failed for ad %s: %v", ad.ID, err)
			} else {
				ad.Insights = ins
			}
		}
		ad.FormatCategory = ad.Creative.Format()
	}
	log.Printf("[metaads] enrichment done: %d ads, %d creative misses, %d insight misses",
		len(ads), creativeMisses, insightMisses)
}
