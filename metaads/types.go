package metaads

// Typed view of the Graph API ad object. Every nested field is optional on the
// wire; pointers and zero values stand in for absent keys so traversal never
// needs existence checks.

// Ad is one advertising unit with its creative and performance metrics.
type Ad struct {
	ID             string         `json:"id"`
	Name           string         `json:"name,omitempty"`
	Status         string         `json:"status,omitempty"`
	Campaign       *Campaign      `json:"campaign,omitempty"`
	AdSet          *AdSet         `json:"adset,omitempty"`
	Creative       *Creative      `json:"creative,omitempty"`
	Insights       *Insights      `json:"insights,omitempty"`
	FormatCategory FormatCategory `json:"format_category,omitempty"`
}

type Campaign struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	Objective   string `json:"objective,omitempty"`
	Status      string `json:"status,omitempty"`
	DailyBudget string `json:"daily_budget,omitempty"`
	StartTime   string `json:"start_time,omitempty"`
	StopTime    string `json:"stop_time,omitempty"`
}

type AdSet struct {
	ID               string                 `json:"id"`
	Name             string                 `json:"name,omitempty"`
	OptimizationGoal string                 `json:"optimization_goal,omitempty"`
	Status           string                 `json:"status,omitempty"`
	DailyBudget      string                 `json:"daily_budget,omitempty"`
	Targeting        map[string]interface{} `json:"targeting,omitempty"`
}

// Creative is the visual/text payload of an ad. Local/remote path fields are
// filled in by the resolver and materializer stages.
type Creative struct {
	Title          string         `json:"title,omitempty"`
	Body           string         `json:"body,omitempty"`
	ImageHash      string         `json:"image_hash,omitempty"`
	ImageURL       string         `json:"image_url,omitempty"`
	ThumbnailURL   string         `json:"thumbnail_url,omitempty"`
	LocalImagePath string         `json:"local_image_path,omitempty"`
	RemoteImageURL string         `json:"remote_image_url,omitempty"`
	AssetFeedSpec  *AssetFeedSpec `json:"asset_feed_spec,omitempty"`
	ObjectStory    *ObjectStory   `json:"object_story_spec,omitempty"`
}

type AssetFeedSpec struct {
	Videos []*VideoAsset `json:"videos,omitempty"`
	Images []*ImageAsset `json:"images,omitempty"`
}

type VideoAsset struct {
	VideoID        string `json:"video_id,omitempty"`
	SourceURL      string `json:"source_url,omitempty"`
	LocalVideoPath string `json:"local_video_path,omitempty"`
}

type ImageAsset struct {
	URL string `json:"url,omitempty"`
}

type ObjectStory struct {
	TextData  *TextData  `json:"text_data,omitempty"`
	LinkData  *LinkData  `json:"link_data,omitempty"`
	VideoData *VideoData `json:"video_data,omitempty"`
	PhotoData *PhotoData `json:"photo_data,omitempty"`
}

type TextData struct {
	Message string `json:"message,omitempty"`
}

type LinkData struct {
	Link             string             `json:"link,omitempty"`
	Name             string             `json:"name,omitempty"`
	Description      string             `json:"description,omitempty"`
	Caption          string             `json:"caption,omitempty"`
	Picture          string             `json:"picture,omitempty"`
	ChildAttachments []*ChildAttachment `json:"child_attachments,omitempty"`
}

// ChildAttachment is one carousel card. Each card carries its own image
// reference, resolved independently of the primary creative.
type ChildAttachment struct {
	Link           string `json:"link,omitempty"`
	Name           string `json:"name,omitempty"`
	Description    string `json:"description,omitempty"`
	Caption        string `json:"caption,omitempty"`
	Picture        string `json:"picture,omitempty"`
	ImageHash      string `json:"image_hash,omitempty"`
	ImageURL       string `json:"image_url,omitempty"`
	LocalImagePath string `json:"local_image_path,omitempty"`
}

type VideoData struct {
	VideoID        string `json:"video_id,omitempty"`
	ImageURL       string `json:"image_url,omitempty"`
	Title          string `json:"title,omitempty"`
	VideoURL       string `json:"video_url,omitempty"`
	LocalVideoPath string `json:"local_video_path,omitempty"`
}

type PhotoData struct {
	ImageHash      string `json:"image_hash,omitempty"`
	URL            string `json:"url,omitempty"`
	LocalImagePath string `json:"local_image_path,omitempty"`
}

// Insights wraps the Graph API insights envelope. Numeric fields arrive as
// strings on the wire and are coerced during flattening.
type Insights struct {
	Data []*InsightEntry `json:"data"`
}

type InsightEntry struct {
	Spend        string         `json:"spend,omitempty"`
	Impressions  string         `json:"impressions,omitempty"`
	Clicks       string         `json:"clicks,omitempty"`
	CTR          string         `json:"ctr,omitempty"`
	CPC          string         `json:"cpc,omitempty"`
	CPM          string         `json:"cpm,omitempty"`
	Actions      []*ActionValue `json:"actions,omitempty"`
	PurchaseROAS []*ActionValue `json:"purchase_roas,omitempty"`
}

type ActionValue struct {
	ActionType string `json:"action_type,omitempty"`
	Value      string `json:"value,omitempty"`
}

// Entry returns the first insights entry, or nil.
func (a *Ad) InsightEntry() *InsightEntry {
	if a.Insights == nil || len(a.Insights.Data) == 0 {
		return nil
	}
	return a.Insights.Data[0]
}

// FormatCategory classifies a creative by which media fields are populated.
type FormatCategory string

const (
	FormatVideo       FormatCategory = "Video/Reel"
	FormatCarousel    FormatCategory = "Carousel"
	FormatStaticImage FormatCategory = "Static Image"
	FormatUnknown     FormatCategory = "Unknown"
)

// Format classifies the creative in fixed priority order:
// video > carousel > static image > unknown.
func (c *Creative) Format() FormatCategory {
	if c == nil {
		return FormatUnknown
	}
	if c.hasVideo() {
		return FormatVideo
	}
	if c.hasCarousel() {
		return FormatCarousel
	}
	if c.hasStaticImage() {
		return FormatStaticImage
	}
	return FormatUnknown
}

func (c *Creative) hasVideo() bool {
	if c.AssetFeedSpec != nil && len(c.AssetFeedSpec.Videos) > 0 {
		return true
	}
	return c.ObjectStory != nil && c.ObjectStory.VideoData != nil && c.ObjectStory.VideoData.VideoID != ""
}

func (c *Creative) hasCarousel() bool {
	return c.ObjectStory != nil && c.ObjectStory.LinkData != nil && len(c.ObjectStory.LinkData.ChildAttachments) > 0
}

func (c *Creative) hasStaticImage() bool {
	if c.ImageURL != "" || c.ImageHash != "" || c.ThumbnailURL != "" {
		return true
	}
	if c.AssetFeedSpec != nil && len(c.AssetFeedSpec.Images) > 0 {
		return true
	}
	return c.ObjectStory != nil && c.ObjectStory.PhotoData != nil
}

// NormalizeStatus maps platform status values onto the fixed set used in
// pattern metadata: Active, Paused, Deleted or Unknown.
func NormalizeStatus(s string) string {
	switch s {
	case "ACTIVE":
		return "Active"
	case "PAUSED", "CAMPAIGN_PAUSED", "ADSET_PAUSED":
		return "Paused"
	case "DELETED", "ARCHIVED":
		return "Deleted"
	default:
		return "Unknown"
	}
}
