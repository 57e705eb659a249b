package metaads

import "sort"

// MediaRefs are the unique image hashes and video ids referenced anywhere in a
// batch of creatives. Both slices are sorted so chunking and logs are stable
// across runs.
type MediaRefs struct {
	ImageHashes []string
	VideoIDs    []string
}

// CollectMediaRefs scans every creative's fixed reference locations: the
// primary image hash, carousel child attachments, the story photo field, the
// asset-feed video list and the story video.
func CollectMediaRefs(ads []*Ad) MediaRefs {
	hashes := map[string]bool{}
	videos := map[string]bool{}

	for _, ad := range ads {
		cr := ad.Creative
		if cr == nil {
			continue
		}
		if cr.ImageHash != "" {
			hashes[cr.ImageHash] = true
		}
		if cr.AssetFeedSpec != nil {
			for _, v := range cr.AssetFeedSpec.Videos {
				if v.VideoID != "" {
					videos[v.VideoID] = true
				}
			}
		}
		if story := cr.ObjectStory; story != nil {
			if story.LinkData != nil {
				for _, child := range story.LinkData.ChildAttachments {
					if child.ImageHash != "" {
						hashes[child.ImageHash] = true
					}
				}
			}
			if story.PhotoData != nil && story.PhotoData.ImageHash != "" {
				hashes[story.PhotoData.ImageHash] = true
			}
			if story.VideoData != nil && story.VideoData.VideoID != "" {
				videos[story.VideoData.VideoID] = true
			}
		}
	}

	return MediaRefs{
		ImageHashes: sortedKeys(hashes),
		VideoIDs:    sortedKeys(videos),
	}
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
