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

// ResolverOptions tune the media-reference resolver. Zero values fall back to
// the config defaults.
type ResolverOptions struct {
	ChunkSize  int
	ChunkDelay time.Duration
	MaxRetries int
	BaseDelay  time.Duration
}

func (o ResolverOptions) withDefaults() ResolverOptions {
	if o.ChunkSize <= 0 {
		o.ChunkSize = config.MetaImageChunkSize
	}
	if o.ChunkDelay < 0 {
		o.ChunkDelay = 0
	} else if o.ChunkDelay == 0 {
		o.ChunkDelay = config.MetaChunkDelay
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = config.MetaVideoMaxRetries
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = config.MetaVideoBaseDelay
	}
	return o
}

type imageBatch struct {
	Data []struct {
		Hash string `json:"hash"`
		URL  string `json:"url"`
	} `json:"data"`
	Error *graphError `json:"error"`
}

// ResolveImageURLs looks up downloadable URLs for image hashes via the bulk
// adimages endpoint, in chunks no larger than opts.ChunkSize. A failed chunk
// is logged and skipped; its hashes simply stay unresolved. The returned map
// holds only hashes the API answered for, and the first answer for a hash
// wins: a colliding reply is logged and dropped.
func (c *Client) ResolveImageURLs(ctx context.Context, hashes []string, opts ResolverOptions) map[string]string {
	opts = opts.withDefaults()
	resolved := make(map[string]string, len(hashes))
	if len(hashes) == 0 {
		return resolved
	}

	chunks := 0
	for start := 0; start < len(hashes); start += opts.ChunkSize {
		end := start + opts.ChunkSize
		if end > len(hashes) {
			end = len(hashes)
		}
		chunk := hashes[start:end]
		chunks++

		if start > 0 {
			select {
			case <-ctx.Done():
				return resolved
			case <-time.After(opts.ChunkDelay):
			}
		}

		batch, err := c.fetchImageChunk(ctx, chunk)
		if err != nil {
			log.Printf("[resolve] image chunk %d (%d hashes) failed, skipping: %v", chunks, len(chunk), err)
			continue
		}
		for _, entry := range batch.Data {
			if entry.Hash == "" || entry.URL == "" {
				continue
			}
			if prev, ok := resolved[entry.Hash]; ok && prev != entry.URL {
				log.Printf("[resolve] duplicate reply for hash %s, keeping first", entry.Hash)
				continue
			}
			resolved[entry.Hash] = entry.URL
		}
	}
	log.Printf("[resolve] images: %d/%d resolved over %d chunks", len(resolved), len(hashes), chunks)
	return resolved
}

func (c *Client) fetchImageChunk(ctx context.Context, hashes []string) (*imageBatch, error) {
	hashJSON, err := json.Marshal(hashes)
	if err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("fields", "hash,url")
	params.Set("hashes", string(hashJSON))
	reqURL := c.objectURL("act_"+c.accountID+"/adimages", params)

	body, status, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, fmt.Errorf("status %d: %s", status, truncate(body, 200))
	}
	var batch imageBatch
	if err := json.Unmarshal(body, &batch); err != nil {
		return nil, err
	}
	if batch.Error != nil {
		return nil, batch.Error
	}
	return &batch, nil
}

type videoSource struct {
	Source string      `json:"source"`
	Error  *graphError `json:"error"`
}

// ResolveVideoURLs looks up source URLs for video ids one id at a time, since
// there is no bulk endpoint. Each id gets up to opts.MaxRetries attempts with
// exponential backoff (BaseDelay doubled per attempt). Only server errors are
// retried; a permission error or any other client-error reply skips the id
// immediately without further attempts. An OK reply with no source field
// counts as a retryable miss. Per-item failures never fail the batch; the id
// is just absent from the result.
func (c *Client) ResolveVideoURLs(ctx context.Context, videoIDs []string, opts ResolverOptions) map[string]string {
	opts = opts.withDefaults()
	resolved := make(map[string]string, len(videoIDs))
	var skipped, exhausted int

	for _, id := range videoIDs {
		src, outcome := c.resolveVideo(ctx, id, opts)
		switch outcome {
		case videoResolved:
			resolved[id] = src
		case videoSkipped:
			skipped++
		case videoExhausted:
			exhausted++
		case videoCancelled:
			log.Printf("[resolve] videos: cancelled after %d/%d", len(resolved), len(videoIDs))
			return resolved
		}
	}
	log.Printf("[resolve] videos: %d resolved, %d skipped, %d exhausted of %d",
		len(resolved), skipped, exhausted, len(videoIDs))
	return resolved
}

type videoOutcome int

const (
	videoResolved videoOutcome = iota
	videoSkipped
	videoExhausted
	videoCancelled
)

func (c *Client) resolveVideo(ctx context.Context, id string, opts ResolverOptions) (string, videoOutcome) {
	params := url.Values{}
	params.Set("fields", "source")
	reqURL := c.objectURL(id, params)

	var lastErr error
	for attempt := 0; attempt < opts.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := opts.BaseDelay << uint(attempt-1)
			select {
			case <-ctx.Done():
				return "", videoCancelled
			case <-time.After(delay):
			}
		}

		body, status, err := c.get(ctx, reqURL)
		if err != nil {
			if ctx.Err() != nil {
				return "", videoCancelled
			}
			lastErr = err
			continue
		}

		var vs videoSource
		if decodeErr := json.Unmarshal(body, &vs); decodeErr != nil {
			lastErr = decodeErr
			continue
		}
		if vs.Error != nil && vs.Error.Code == config.MetaPermissionErrorCode {
			log.Printf("[resolve] video %s: no permission, skipping", id)
			return "", videoSkipped
		}
		switch {
		case status >= 500:
			lastErr = fmt.Errorf("status %d: %s", status, truncate(body, 200))
		case status >= 400:
			// client errors never heal on retry
			log.Printf("[resolve] video %s: status %d, skipping: %s", id, status, truncate(body, 200))
			return "", videoSkipped
		case vs.Source == "":
			lastErr = fmt.Errorf("reply has no source field")
		default:
			return vs.Source, videoResolved
		}
	}
	log.Printf("[resolve] video %s: gave up after %d attempts: %v", id, opts.MaxRetries, lastErr)
	return "", videoExhausted
}
