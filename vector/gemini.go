package vector

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	genai "google.golang.org/genai"

	"github.com/campaign-os/assistant/cache"
	"github.com/campaign-os/assistant/config"
)

var (
	geminiClient *genai.Client

	// queryCache avoids re-embedding repeated chat prompts.
	queryCache *cache.Cache[[]float32]
)

const queryCacheTTL = time.Hour

// InitGemini initializes the embedding/captioning client and the query
// embedding cache.
func InitGemini() error {
	if config.GeminiAPIKey == "" {
		return fmt.Errorf("missing Gemini API key")
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  config.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return fmt.Errorf("creating gemini client: %w", err)
	}
	geminiClient = client

	queryCache, err = cache.New[[]float32]("query-embeddings", func(v []float32) int64 {
		return int64(len(v) * 4)
	})
	return err
}

// EmbedTexts generates embeddings for multiple texts in one API call. Order
// of results matches the input.
func EmbedTexts(texts []string) ([][]float32, error) {
	if geminiClient == nil {
		return nil, fmt.Errorf("gemini client not initialized")
	}
	if len(texts) == 0 {
		return nil, fmt.Errorf("cannot embed empty text batch")
	}

	var contents []*genai.Content
	for i, text := range texts {
		text = strings.TrimSpace(text)
		if text == "" {
			return nil, fmt.Errorf("cannot embed empty text at index %d", i)
		}
		contents = append(contents, genai.Text(text)...)
	}

	dimensions := int32(config.GeminiEmbeddingDimensions)
	resp, err := geminiClient.Models.EmbedContent(context.Background(), config.GeminiEmbeddingModel, contents,
		&genai.EmbedContentConfig{OutputDimensionality: &dimensions})
	if err != nil {
		return nil, fmt.Errorf("gemini embedding: %w", err)
	}
	if resp == nil || len(resp.Embeddings) != len(texts) {
		got := 0
		if resp != nil {
			got = len(resp.Embeddings)
		}
		return nil, fmt.Errorf("requested %d embeddings, got %d", len(texts), got)
	}

	embeddings := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		if e == nil {
			return nil, fmt.Errorf("nil embedding at index %d", i)
		}
		embeddings[i] = e.Values
	}
	return embeddings, nil
}

// EmbedQuery embeds one chat prompt, serving repeats from cache.
func EmbedQuery(query string) ([]float32, error) {
	key := strings.ToLower(strings.TrimSpace(query))
	if v, ok := queryCache.Get(key); ok {
		return v, nil
	}
	embeddings, err := EmbedTexts([]string{query})
	if err != nil {
		return nil, err
	}
	queryCache.SetWithTTL(key, embeddings[0], queryCacheTTL)
	return embeddings[0], nil
}

const captionPrompt = "Describe this ad image in one sentence focused on its marketing psychology: " +
	"what attention hook, emotion, and visual technique it uses. Plain text only."

// CaptionImage produces a one-line marketing description of an ad image. The
// source may be a local file path or an http(s) URL. One retry on failure;
// callers treat an error as "no caption".
func CaptionImage(ctx context.Context, source string) (string, error) {
	if geminiClient == nil {
		return "", fmt.Errorf("gemini client not initialized")
	}
	data, mime, err := loadImage(ctx, source)
	if err != nil {
		return "", err
	}

	content := genai.NewContentFromParts([]*genai.Part{
		genai.NewPartFromBytes(data, mime),
		genai.NewPartFromText(captionPrompt),
	}, genai.RoleUser)

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		resp, err := geminiClient.Models.GenerateContent(ctx, config.GeminiCaptionModel,
			[]*genai.Content{content}, nil)
		if err != nil {
			lastErr = err
			continue
		}
		caption := strings.TrimSpace(resp.Text())
		if caption == "" {
			lastErr = fmt.Errorf("empty caption")
			continue
		}
		return caption, nil
	}
	log.Printf("[caption] %s failed twice: %v", source, lastErr)
	return "", lastErr
}

func loadImage(ctx context.Context, source string) ([]byte, string, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, "", err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, "", fmt.Errorf("fetching image %s: %w", source, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, "", fmt.Errorf("fetching image %s: status %d", source, resp.StatusCode)
		}
		data, err := io.ReadAll(resp.Body)
		return data, mimeFor(source), err
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return nil, "", fmt.Errorf("reading image %s: %w", source, err)
	}
	return data, mimeFor(source), nil
}

func mimeFor(source string) string {
	lower := strings.ToLower(source)
	switch {
	case strings.Contains(lower, ".png"):
		return "image/png"
	case strings.Contains(lower, ".webp"):
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
