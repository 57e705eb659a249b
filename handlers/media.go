package handlers

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/campaign-os/assistant/ad"
	"github.com/campaign-os/assistant/b2util"
)

// Media serves the first materialized image for an ad, falling back to the
// blob-storage copy when the local file is gone.
func Media(c *fiber.Ctx) error {
	a, err := ad.GetByID(c.Params("adID"))
	if err != nil {
		return c.SendStatus(fiber.StatusNotFound)
	}

	if a.ImagePaths != "" {
		path := strings.SplitN(a.ImagePaths, ",", 2)[0]
		// prefer the webp preview when the materializer produced one
		if preview := previewPath(path); preview != "" {
			if _, err := os.Stat(preview); err == nil {
				return c.SendFile(preview)
			}
		}
		if _, err := os.Stat(path); err == nil {
			return c.SendFile(path)
		}
	}
	if a.RemoteImageURL != "" {
		return c.Redirect(signedMediaURL(a), fiber.StatusTemporaryRedirect)
	}
	return c.SendStatus(fiber.StatusNotFound)
}

// previewPath names the 480w webp the materializer writes next to a
// downloaded image, whatever its extension.
func previewPath(path string) string {
	if path == "" {
		return ""
	}
	return strings.TrimSuffix(path, filepath.Ext(path)) + "_480w.webp"
}

// signedMediaURL appends a download authorization token for private buckets.
func signedMediaURL(a *ad.Ad) string {
	if !b2util.Configured() {
		return a.RemoteImageURL
	}
	token, err := b2util.DownloadTokenForPrefix("ad_creatives/" + a.AdID + "/")
	if err != nil {
		return a.RemoteImageURL
	}
	return a.RemoteImageURL + "?Authorization=" + token
}
