package metaads

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"golang.org/x/image/draw"

	"github.com/campaign-os/assistant/config"
)

// Uploader pushes a materialized file to blob storage and returns its public
// URL. Implemented by b2util; nil disables the upload stage.
type Uploader interface {
	UploadMedia(localPath, adID string) (string, error)
}

// Materializer downloads resolved media into a local directory with
// deterministic names, so re-runs skip files that already exist.
type Materializer struct {
	Dir        string
	HTTPClient *http.Client
	Uploader   Uploader
	// Preview renders a 480w webp next to downloaded images for the chat UI.
	Preview bool
}

func NewMaterializer(dir string) *Materializer {
	return &Materializer{
		Dir:        dir,
		HTTPClient: &http.Client{Timeout: config.MetaRequestTimeout},
		Preview:    true,
	}
}

// Download fetches mediaURL into Dir as <prefix><adID>_<refID><ext> and
// returns the local path. An existing file is returned untouched. Any failure
// logs and returns "", which downstream treats as media-less.
func (m *Materializer) Download(ctx context.Context, mediaURL, adID, refID, prefix string) string {
	if mediaURL == "" {
		return ""
	}
	name := prefix + adID + "_" + sanitizeRef(refID) + inferExtension(mediaURL)
	dest := filepath.Join(m.Dir, name)

	if _, err := os.Stat(dest); err == nil {
		return dest
	}
	if err := os.MkdirAll(m.Dir, 0o755); err != nil {
		log.Printf("[media] creating %s: %v", m.Dir, err)
		return ""
	}

	if err := m.fetchToFile(ctx, mediaURL, dest); err != nil {
		log.Printf("[media] download %s for ad %s failed: %v", refID, adID, err)
		os.Remove(dest)
		return ""
	}
	if m.Preview && isImageExt(path.Ext(dest)) {
		if err := writePreview(dest); err != nil {
			log.Printf("[media] preview for %s: %v", dest, err)
		}
	}
	return dest
}

func (m *Materializer) fetchToFile(ctx context.Context, mediaURL, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return err
	}
	resp, err := m.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// inferExtension takes the extension from the URL path when it has one, and
// otherwise guesses .mp4 for URLs that look like video and .jpg for the rest.
func inferExtension(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil {
		if ext := path.Ext(u.Path); ext != "" && len(ext) <= 5 {
			return strings.ToLower(ext)
		}
	}
	lower := strings.ToLower(rawURL)
	for _, marker := range []string{"video", "mp4", "mov"} {
		if strings.Contains(lower, marker) {
			return ".mp4"
		}
	}
	return ".jpg"
}

func isImageExt(ext string) bool {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg", ".png", ".webp":
		return true
	}
	return false
}

func sanitizeRef(ref string) string {
	if len(ref) > 40 {
		ref = ref[:40]
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, ref)
}

// writePreview re-encodes an image as a 480w webp next to the original.
func writePreview(src string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	img, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return err
	}

	bounds := img.Bounds()
	width := 480
	if bounds.Dx() < width {
		width = bounds.Dx()
	}
	height := bounds.Dy() * width / bounds.Dx()
	scaled := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, bounds, draw.Over, nil)

	out, err := os.Create(strings.TrimSuffix(src, path.Ext(src)) + "_480w.webp")
	if err != nil {
		return err
	}
	defer out.Close()
	return webp.Encode(out, scaled, &webp.Options{Quality: 80})
}

// MediaCounts summarizes one injection pass for the run log and alerting.
type MediaCounts struct {
	ImagesResolved int
	ImagesMissing  int
	VideosResolved int
	VideosMissing  int
	Uploaded       int
}

// InjectMedia walks every creative, writes the resolved URL into each media
// reference, downloads it and records the local path. References whose hash
// or id is absent from the maps are counted and left empty. When an Uploader
// is set, primary and carousel images additionally get a public URL.
func (m *Materializer) InjectMedia(ctx context.Context, ads []*Ad, images, videos map[string]string) MediaCounts {
	var counts MediaCounts

	for _, ad := range ads {
		cr := ad.Creative
		if cr == nil {
			continue
		}
		if cr.ImageHash != "" {
			if u, ok := images[cr.ImageHash]; ok {
				cr.ImageURL = u
				cr.LocalImagePath = m.Download(ctx, u, ad.ID, cr.ImageHash, "img_")
				m.upload(cr.LocalImagePath, ad.ID, &cr.RemoteImageURL, &counts)
				counts.ImagesResolved++
			} else {
				counts.ImagesMissing++
			}
		}
		if story := cr.ObjectStory; story != nil {
			if story.LinkData != nil {
				for _, child := range story.LinkData.ChildAttachments {
					if child.ImageHash == "" {
						continue
					}
					if u, ok := images[child.ImageHash]; ok {
						child.ImageURL = u
						child.LocalImagePath = m.Download(ctx, u, ad.ID, child.ImageHash, "carousel_")
						counts.ImagesResolved++
					} else {
						counts.ImagesMissing++
					}
				}
			}
			if story.PhotoData != nil && story.PhotoData.ImageHash != "" {
				if u, ok := images[story.PhotoData.ImageHash]; ok {
					story.PhotoData.URL = u
					story.PhotoData.LocalImagePath = m.Download(ctx, u, ad.ID, story.PhotoData.ImageHash, "photo_")
					counts.ImagesResolved++
				} else {
					counts.ImagesMissing++
				}
			}
			if story.VideoData != nil && story.VideoData.VideoID != "" {
				if u, ok := videos[story.VideoData.VideoID]; ok {
					story.VideoData.VideoURL = u
					story.VideoData.LocalVideoPath = m.Download(ctx, u, ad.ID, story.VideoData.VideoID, "video_")
					counts.VideosResolved++
				} else {
					counts.VideosMissing++
				}
			}
		}
		if cr.AssetFeedSpec != nil {
			for _, v := range cr.AssetFeedSpec.Videos {
				if v.VideoID == "" {
					continue
				}
				if u, ok := videos[v.VideoID]; ok {
					v.SourceURL = u
					v.LocalVideoPath = m.Download(ctx, u, ad.ID, v.VideoID, "video_asset_")
					counts.VideosResolved++
				} else {
					counts.VideosMissing++
				}
			}
		}
	}

	log.Printf("[media] injected: images %d resolved / %d missing, videos %d resolved / %d missing, %d uploaded",
		counts.ImagesResolved, counts.ImagesMissing, counts.VideosResolved, counts.VideosMissing, counts.Uploaded)
	return counts
}

func (m *Materializer) upload(localPath, adID string, remoteURL *string, counts *MediaCounts) {
	if m.Uploader == nil || localPath == "" {
		return
	}
	u, err := m.Uploader.UploadMedia(localPath, adID)
	if err != nil {
		log.Printf("[media] upload %s: %v", localPath, err)
		return
	}
	*remoteURL = u
	counts.Uploaded++
}
