package metaads

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreativeFormat(t *testing.T) {
	video := &VideoData{VideoID: "v1"}
	carousel := &LinkData{ChildAttachments: []*ChildAttachment{{ImageHash: "h1"}}}

	tests := []struct {
		name     string
		creative *Creative
		want     FormatCategory
	}{
		{"nil creative", nil, FormatUnknown},
		{"empty creative", &Creative{}, FormatUnknown},
		{"story video", &Creative{ObjectStory: &ObjectStory{VideoData: video}}, FormatVideo},
		{"asset feed video", &Creative{AssetFeedSpec: &AssetFeedSpec{Videos: []*VideoAsset{{VideoID: "v2"}}}}, FormatVideo},
		{"video id empty is not video", &Creative{ObjectStory: &ObjectStory{VideoData: &VideoData{}}}, FormatUnknown},
		{"carousel", &Creative{ObjectStory: &ObjectStory{LinkData: carousel}}, FormatCarousel},
		{"link data without children is not carousel", &Creative{ObjectStory: &ObjectStory{LinkData: &LinkData{Link: "x"}}}, FormatUnknown},
		{"image hash", &Creative{ImageHash: "abc"}, FormatStaticImage},
		{"image url", &Creative{ImageURL: "https://cdn/x.jpg"}, FormatStaticImage},
		{"thumbnail only", &Creative{ThumbnailURL: "https://cdn/t.jpg"}, FormatStaticImage},
		{"photo data", &Creative{ObjectStory: &ObjectStory{PhotoData: &PhotoData{ImageHash: "h"}}}, FormatStaticImage},
		{"asset feed image", &Creative{AssetFeedSpec: &AssetFeedSpec{Images: []*ImageAsset{{URL: "u"}}}}, FormatStaticImage},
		{"video beats carousel", &Creative{ObjectStory: &ObjectStory{VideoData: video, LinkData: carousel}}, FormatVideo},
		{"video beats static", &Creative{ImageHash: "h", ObjectStory: &ObjectStory{VideoData: video}}, FormatVideo},
		{"carousel beats static", &Creative{ImageHash: "h", ObjectStory: &ObjectStory{LinkData: carousel}}, FormatCarousel},
		{"all three is video", &Creative{ImageHash: "h", ObjectStory: &ObjectStory{VideoData: video, LinkData: carousel}}, FormatVideo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.creative.Format())
		})
	}
}

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ACTIVE", "Active"},
		{"PAUSED", "Paused"},
		{"CAMPAIGN_PAUSED", "Paused"},
		{"ADSET_PAUSED", "Paused"},
		{"DELETED", "Deleted"},
		{"ARCHIVED", "Deleted"},
		{"IN_PROCESS", "Unknown"},
		{"", "Unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeStatus(tt.in), tt.in)
	}
}

func TestInsightEntry(t *testing.T) {
	ad := &Ad{}
	assert.Nil(t, ad.InsightEntry())

	ad.Insights = &Insights{}
	assert.Nil(t, ad.InsightEntry())

	ad.Insights.Data = []*InsightEntry{{Spend: "1.5"}, {Spend: "9"}}
	assert.Equal(t, "1.5", ad.InsightEntry().Spend)
}
