package ad

import (
	"fmt"
	"log"
	"strings"

	"github.com/campaign-os/assistant/db"
	"github.com/campaign-os/assistant/metaads"
)

// The ads table is the relational source of truth the chat UI reads after
// vector search returns ids. has_vector tracks which rows have been embedded.
const schema = `
CREATE TABLE IF NOT EXISTS ads (
	ad_id TEXT PRIMARY KEY,
	ad_name TEXT,
	ad_status TEXT,
	format_category TEXT,
	campaign_id TEXT,
	campaign_name TEXT,
	campaign_objective TEXT,
	campaign_status TEXT,
	adset_id TEXT,
	adset_name TEXT,
	optimization_goal TEXT,
	copy_text TEXT,
	link_url TEXT,
	image_paths TEXT,
	video_path TEXT,
	remote_image_url TEXT,
	spend REAL NOT NULL DEFAULT 0,
	impressions INTEGER NOT NULL DEFAULT 0,
	clicks INTEGER NOT NULL DEFAULT 0,
	ctr REAL NOT NULL DEFAULT 0,
	roas REAL NOT NULL DEFAULT 0,
	conversions INTEGER NOT NULL DEFAULT 0,
	conversion_rate REAL NOT NULL DEFAULT 0,
	has_vector INTEGER NOT NULL DEFAULT 0,
	updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);
CREATE INDEX IF NOT EXISTS idx_ads_has_vector ON ads(has_vector);
`

// EnsureSchema creates the ads table if missing.
func EnsureSchema() error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating ads schema: %w", err)
	}
	return nil
}

// Ad is the stored row shape read back by the chat UI.
type Ad struct {
	AdID              string
	AdName            string
	AdStatus          string
	FormatCategory    string
	CampaignID        string
	CampaignName      string
	CampaignObjective string
	CampaignStatus    string
	AdSetID           string
	AdSetName         string
	OptimizationGoal  string
	CopyText          string
	LinkURL           string
	ImagePaths        string
	VideoPath         string
	RemoteImageURL    string
	Spend             float64
	Impressions       int
	Clicks            int
	CTR               float64
	ROAS              float64
	Conversions       int
	ConversionRate    float64
	HasVector         bool
}

const upsertSQL = `
INSERT INTO ads (
	ad_id, ad_name, ad_status, format_category,
	campaign_id, campaign_name, campaign_objective, campaign_status,
	adset_id, adset_name, optimization_goal,
	copy_text, link_url, image_paths, video_path, remote_image_url,
	spend, impressions, clicks, ctr, roas, conversions, conversion_rate,
	updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))
ON CONFLICT(ad_id) DO UPDATE SET
	ad_name = excluded.ad_name,
	ad_status = excluded.ad_status,
	format_category = excluded.format_category,
	campaign_id = excluded.campaign_id,
	campaign_name = excluded.campaign_name,
	campaign_objective = excluded.campaign_objective,
	campaign_status = excluded.campaign_status,
	adset_id = excluded.adset_id,
	adset_name = excluded.adset_name,
	optimization_goal = excluded.optimization_goal,
	copy_text = excluded.copy_text,
	link_url = excluded.link_url,
	image_paths = excluded.image_paths,
	video_path = excluded.video_path,
	remote_image_url = excluded.remote_image_url,
	spend = excluded.spend,
	impressions = excluded.impressions,
	clicks = excluded.clicks,
	ctr = excluded.ctr,
	roas = excluded.roas,
	conversions = excluded.conversions,
	conversion_rate = excluded.conversion_rate,
	updated_at = excluded.updated_at`

// UpsertFlatRows stores one pipeline run's flattened rows. Re-ingesting an ad
// keeps its has_vector flag so unchanged ads are not re-embedded.
func UpsertFlatRows(rows []metaads.FlatRow) error {
	for _, r := range rows {
		_, err := db.Exec(upsertSQL,
			r.AdID, r.AdName, r.AdStatus, r.FormatCategory,
			r.CampaignID, r.CampaignName, r.CampaignObjective, r.CampaignStatus,
			r.AdSetID, r.AdSetName, r.OptimizationGoal,
			r.CopyText, r.LinkURL, r.ImagePaths, r.VideoPath, r.RemoteImageURL,
			r.Spend, r.Impressions, r.Clicks, r.CTR, r.ROAS, r.Conversions, r.ConversionRate,
		)
		if err != nil {
			return fmt.Errorf("upserting ad %s: %w", r.AdID, err)
		}
	}
	log.Printf("[ad] upserted %d rows", len(rows))
	return nil
}

const selectCols = `ad_id, ad_name, ad_status, format_category,
	campaign_id, campaign_name, campaign_objective, campaign_status,
	adset_id, adset_name, optimization_goal,
	copy_text, link_url, image_paths, video_path, remote_image_url,
	spend, impressions, clicks, ctr, roas, conversions, conversion_rate, has_vector`

func scanAd(scan func(...interface{}) error) (*Ad, error) {
	var a Ad
	err := scan(
		&a.AdID, &a.AdName, &a.AdStatus, &a.FormatCategory,
		&a.CampaignID, &a.CampaignName, &a.CampaignObjective, &a.CampaignStatus,
		&a.AdSetID, &a.AdSetName, &a.OptimizationGoal,
		&a.CopyText, &a.LinkURL, &a.ImagePaths, &a.VideoPath, &a.RemoteImageURL,
		&a.Spend, &a.Impressions, &a.Clicks, &a.CTR, &a.ROAS, &a.Conversions, &a.ConversionRate, &a.HasVector,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetByID loads one ad.
func GetByID(adID string) (*Ad, error) {
	row := db.QueryRow("SELECT "+selectCols+" FROM ads WHERE ad_id = ?", adID)
	a, err := scanAd(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("loading ad %s: %w", adID, err)
	}
	return a, nil
}

// GetByIDs loads the given ads, preserving the input order (vector-search
// ranking). Unknown ids are silently dropped.
func GetByIDs(adIDs []string) ([]*Ad, error) {
	if len(adIDs) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(adIDs)), ",")
	args := make([]interface{}, len(adIDs))
	for i, id := range adIDs {
		args[i] = id
	}
	rows, err := db.Query("SELECT "+selectCols+" FROM ads WHERE ad_id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, fmt.Errorf("loading ads: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*Ad, len(adIDs))
	for rows.Next() {
		a, err := scanAd(rows.Scan)
		if err != nil {
			return nil, err
		}
		byID[a.AdID] = a
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ordered := make([]*Ad, 0, len(byID))
	for _, id := range adIDs {
		if a, ok := byID[id]; ok {
			ordered = append(ordered, a)
		}
	}
	return ordered, nil
}

// GetAdsWithoutVectors returns rows the ingest command still needs to embed.
func GetAdsWithoutVectors(limit int) ([]*Ad, error) {
	rows, err := db.Query("SELECT "+selectCols+" FROM ads WHERE has_vector = 0 ORDER BY ad_id LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("loading unembedded ads: %w", err)
	}
	defer rows.Close()

	var ads []*Ad
	for rows.Next() {
		a, err := scanAd(rows.Scan)
		if err != nil {
			return nil, err
		}
		ads = append(ads, a)
	}
	return ads, rows.Err()
}

// MarkAsHavingVector flips the bookkeeping flag after a successful upsert.
func MarkAsHavingVector(adID string) error {
	_, err := db.Exec("UPDATE ads SET has_vector = 1 WHERE ad_id = ?", adID)
	if err != nil {
		return fmt.Errorf("marking ad %s: %w", adID, err)
	}
	return nil
}

// FilterOptions lists the distinct values the sidebar filters offer.
type FilterOptions struct {
	Objectives       []string
	CampaignStatuses []string
	Statuses         []string
	Formats          []string
}

func GetFilterOptions() (*FilterOptions, error) {
	opts := &FilterOptions{}
	for _, q := range []struct {
		col  string
		dest *[]string
	}{
		{"campaign_objective", &opts.Objectives},
		{"campaign_status", &opts.CampaignStatuses},
		{"ad_status", &opts.Statuses},
		{"format_category", &opts.Formats},
	} {
		rows, err := db.Query("SELECT DISTINCT " + q.col + " FROM ads WHERE " + q.col + " != '' ORDER BY " + q.col)
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", q.col, err)
		}
		for rows.Next() {
			var v string
			if err := rows.Scan(&v); err != nil {
				rows.Close()
				return nil, err
			}
			*q.dest = append(*q.dest, v)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}
	return opts, nil
}
