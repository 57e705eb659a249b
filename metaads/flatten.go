package metaads

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
)

// FlatRow is one ad with its context denormalized for analysis. Numeric
// fields are coerced from the API's string representations; anything
// unparsable becomes zero.
type FlatRow struct {
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
	Targeting         string
	CreativeTitle     string
	CreativeBody      string
	CopyText          string
	LinkURL           string
	ImagePaths        string
	VideoPath         string
	VideoURL          string
	ThumbnailURL      string
	RemoteImageURL    string
	Spend             float64
	Impressions       int
	Clicks            int
	CTR               float64
	CPC               float64
	CPM               float64
	ROAS              float64
	Conversions       int
	ConversionRate    float64
}

// conversionActionTypes are the action buckets counted as conversions.
var conversionActionTypes = map[string]bool{
	"offsite_conversion":         true,
	"purchase":                   true,
	"onsite_conversion.purchase": true,
}

// Flatten produces one row per ad in deterministic order (campaign id, then
// adset id, then insertion order of ads).
func Flatten(h Hierarchy) []FlatRow {
	var rows []FlatRow

	for _, campID := range sortedHierarchyKeys(h) {
		camp := h[campID]
		setIDs := make([]string, 0, len(camp.AdSets))
		for id := range camp.AdSets {
			setIDs = append(setIDs, id)
		}
		sort.Strings(setIDs)

		for _, setID := range setIDs {
			set := camp.AdSets[setID]
			for _, ad := range set.Ads {
				rows = append(rows, flattenAd(camp, set, ad))
			}
		}
	}
	return rows
}

func sortedHierarchyKeys(h Hierarchy) []string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func flattenAd(camp *CampaignNode, set *AdSetNode, ad *Ad) FlatRow {
	// Statuses are normalized here, once, so the sqlite rows the sidebar
	// lists and the vector payload the filter matches share one vocabulary.
	row := FlatRow{
		AdID:              ad.ID,
		AdName:            ad.Name,
		AdStatus:          NormalizeStatus(ad.Status),
		FormatCategory:    string(ad.FormatCategory),
		CampaignID:        camp.ID,
		CampaignName:      camp.Name,
		CampaignObjective: camp.Objective,
		CampaignStatus:    NormalizeStatus(camp.Status),
		AdSetID:           set.ID,
		AdSetName:         set.Name,
		OptimizationGoal:  set.OptimizationGoal,
	}
	if ad.FormatCategory == "" {
		row.FormatCategory = string(ad.Creative.Format())
	}
	if set.Targeting != nil {
		if b, err := json.Marshal(set.Targeting); err == nil {
			row.Targeting = string(b)
		}
	}

	if cr := ad.Creative; cr != nil {
		row.CreativeTitle = cr.Title
		row.CreativeBody = cr.Body
		row.ThumbnailURL = cr.ThumbnailURL
		row.RemoteImageURL = cr.RemoteImageURL
		row.CopyText = copyText(cr)
		row.LinkURL = linkURL(cr)
		row.ImagePaths = strings.Join(imagePaths(cr), ",")
		row.VideoPath, row.VideoURL = videoRefs(cr)
	}

	if entry := ad.InsightEntry(); entry != nil {
		row.Spend = parseFloat(entry.Spend)
		row.Impressions = parseInt(entry.Impressions)
		row.Clicks = parseInt(entry.Clicks)
		row.CTR = parseFloat(entry.CTR)
		row.CPC = parseFloat(entry.CPC)
		row.CPM = parseFloat(entry.CPM)
		row.ROAS = purchaseROAS(entry)
		row.Conversions = countConversions(entry)
		if row.Clicks > 0 {
			row.ConversionRate = float64(row.Conversions) / float64(row.Clicks) * 100
		}
	}
	return row
}

// copyText prefers the creative body, then the story message, then link data.
func copyText(cr *Creative) string {
	if cr.Body != "" {
		return cr.Body
	}
	if story := cr.ObjectStory; story != nil {
		if story.TextData != nil && story.TextData.Message != "" {
			return story.TextData.Message
		}
		if story.LinkData != nil {
			if story.LinkData.Description != "" {
				return story.LinkData.Description
			}
			return story.LinkData.Name
		}
	}
	return cr.Title
}

func linkURL(cr *Creative) string {
	if cr.ObjectStory != nil && cr.ObjectStory.LinkData != nil {
		return cr.ObjectStory.LinkData.Link
	}
	return ""
}

func imagePaths(cr *Creative) []string {
	var paths []string
	if cr.LocalImagePath != "" {
		paths = append(paths, cr.LocalImagePath)
	}
	if story := cr.ObjectStory; story != nil {
		if story.LinkData != nil {
			for _, child := range story.LinkData.ChildAttachments {
				if child.LocalImagePath != "" {
					paths = append(paths, child.LocalImagePath)
				}
			}
		}
		if story.PhotoData != nil && story.PhotoData.LocalImagePath != "" {
			paths = append(paths, story.PhotoData.LocalImagePath)
		}
	}
	return paths
}

func videoRefs(cr *Creative) (localPath, remoteURL string) {
	if story := cr.ObjectStory; story != nil && story.VideoData != nil {
		if story.VideoData.LocalVideoPath != "" || story.VideoData.VideoURL != "" {
			return story.VideoData.LocalVideoPath, story.VideoData.VideoURL
		}
	}
	if cr.AssetFeedSpec != nil {
		for _, v := range cr.AssetFeedSpec.Videos {
			if v.LocalVideoPath != "" || v.SourceURL != "" {
				return v.LocalVideoPath, v.SourceURL
			}
		}
	}
	return "", ""
}

func purchaseROAS(entry *InsightEntry) float64 {
	for _, a := range entry.PurchaseROAS {
		if v := parseFloat(a.Value); v != 0 {
			return v
		}
	}
	return 0
}

func countConversions(entry *InsightEntry) int {
	total := 0
	for _, a := range entry.Actions {
		if conversionActionTypes[a.ActionType] {
			total += parseInt(a.Value)
		}
	}
	return total
}

func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseInt(s string) int {
	if s == "" {
		return 0
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	// Some counters arrive as "12.0".
	return int(parseFloat(s))
}

var csvColumns = []string{
	"ad_id", "ad_name", "ad_status", "format_category",
	"campaign_id", "campaign_name", "campaign_objective", "campaign_status",
	"adset_id", "adset_name", "optimization_goal", "targeting",
	"creative_title", "creative_body", "copy_text", "link_url",
	"image_paths", "video_path", "video_url", "thumbnail_url", "remote_image_url",
	"spend", "impressions", "clicks", "ctr", "cpc", "cpm",
	"roas", "conversions", "conversion_rate",
}

func (r FlatRow) record() []string {
	return []string{
		r.AdID, r.AdName, r.AdStatus, r.FormatCategory,
		r.CampaignID, r.CampaignName, r.CampaignObjective, r.CampaignStatus,
		r.AdSetID, r.AdSetName, r.OptimizationGoal, r.Targeting,
		r.CreativeTitle, r.CreativeBody, r.CopyText, r.LinkURL,
		r.ImagePaths, r.VideoPath, r.VideoURL, r.ThumbnailURL, r.RemoteImageURL,
		formatFloat(r.Spend), strconv.Itoa(r.Impressions), strconv.Itoa(r.Clicks),
		formatFloat(r.CTR), formatFloat(r.CPC), formatFloat(r.CPM),
		formatFloat(r.ROAS), strconv.Itoa(r.Conversions), formatFloat(r.ConversionRate),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteCSV writes the flattened rows with a fixed header.
func WriteCSV(rows []FlatRow, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvColumns); err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.Write(row.record()); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	log.Printf("[flatten] wrote %d rows to %s", len(rows), path)
	return nil
}

// WriteJSON writes the full hierarchy as indented JSON.
func WriteJSON(h Hierarchy, path string) error {
	b, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	log.Printf("[flatten] wrote hierarchy (%d campaigns) to %s", len(h), path)
	return nil
}
