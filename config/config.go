package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// Meta Graph API (ads ingestion)
var (
	MetaAccessToken = os.Getenv("META_ACCESS_TOKEN")
	MetaAdAccountID = os.Getenv("META_AD_ACCOUNT_ID")
	MetaAPIVersion  = getEnv("META_API_VERSION", "v24.0")
	MetaBaseURL     = getEnv("META_BASE_URL", "https://graph.facebook.com")
)

// Ingestion pipeline tuning
const (
	MetaPageSize        = 100
	MetaPageMaxRetries  = 5
	MetaPageRetryDelay  = 1 * time.Second
	MetaDetailRetries   = 3
	MetaImageChunkSize  = 100
	MetaChunkDelay      = 200 * time.Millisecond
	MetaVideoMaxRetries = 3
	MetaVideoBaseDelay  = 1 * time.Second
	MetaRequestTimeout  = 30 * time.Second
	// Graph API error code for objects the access token cannot read.
	MetaPermissionErrorCode = 10
)

// Local pipeline output
var (
	DataDir     = getEnv("DATA_DIR", "data")
	MediaDir    = getEnv("MEDIA_DIR", "data/media")
	SessionsDir = getEnv("SESSIONS_DIR", "saved_chats")
	DatabaseURL = getEnv("DATABASE_URL", "campaignos.db")
)

// Qdrant
var (
	QdrantHost       = os.Getenv("QDRANT_HOST")
	QdrantAPIKey     = os.Getenv("QDRANT_API_KEY")
	QdrantCollection = getEnv("QDRANT_COLLECTION", "ad-patterns")
	QdrantPort       = getEnvInt("QDRANT_PORT", 6334)
)

const (
	QdrantUpsertBatchSize = 50
	QdrantSearchTopK      = 5
	QdrantScoreThreshold  = 0.3
)

// Gemini (embeddings + image captioning)
var (
	GeminiAPIKey              = os.Getenv("GEMINI_API_KEY")
	GeminiEmbeddingModel      = getEnv("GEMINI_EMBEDDING_MODEL", "gemini-embedding-001")
	GeminiCaptionModel        = getEnv("GEMINI_CAPTION_MODEL", "gemini-2.0-flash")
	GeminiEmbeddingDimensions = getEnvInt("GEMINI_EMBEDDING_DIMENSIONS", 768)
)

// Grok (ad copy generation)
var (
	GrokAPIKey = os.Getenv("GROK_API_KEY")
	GrokAPIURL = getEnv("GROK_API_URL", "https://api.x.ai/v1/chat/completions")
	GrokModel  = getEnv("GROK_MODEL", "grok-3-mini")
)

// Backblaze B2 (media re-upload + signed downloads)
var (
	B2MasterKeyID = os.Getenv("BACKBLAZE_MASTER_KEY_ID")
	B2KeyID       = os.Getenv("BACKBLAZE_KEY_ID")
	B2AppKey      = os.Getenv("BACKBLAZE_APP_KEY")
	B2BucketName  = os.Getenv("B2_BUCKET_NAME")
	B2BucketID    = os.Getenv("B2_BUCKET_ID")

	B2AuthEndpoint         = getEnv("B2_AUTH_ENDPOINT", "https://api.backblazeb2.com/b2api/v2/b2_authorize_account")
	B2DownloadAuthEndpoint = "/b2api/v2/b2_get_download_authorization"
	B2BaseURL              = os.Getenv("B2_BASE_URL")
)

const B2DownloadTokenExpiry = 3600 // seconds

// Twilio (pipeline run alerts, optional)
var (
	TwilioAccountSID  = os.Getenv("TWILIO_ACCOUNT_SID")
	TwilioAuthToken   = os.Getenv("TWILIO_AUTH_TOKEN")
	TwilioFromNumber  = os.Getenv("TWILIO_FROM_NUMBER")
	TwilioAlertNumber = os.Getenv("TWILIO_ALERT_NUMBER")
)

// Server / chat UI
var (
	ServerPort     = getEnv("PORT", "8080")
	JWTSecret      = getEnv("JWT_SECRET", "dev-secret-change-me")
	AppPassword    = os.Getenv("APP_PASSWORD")
	TailwindCSSURL = getEnv("TAILWIND_CSS_URL", "https://cdn.jsdelivr.net/npm/@tailwindcss/browser@4")
	HTMXURL        = getEnv("HTMX_URL", "https://unpkg.com/htmx.org@2.0.4")
)

const (
	ServerUploadLimit  = 10 * 1024 * 1024
	ServerRateLimitMax = 100
	ServerRateLimitExp = 1 * time.Minute
	RedirectDelay      = 1 * time.Second
)

// ValidateIngest checks the credentials the fetch pipeline needs before any
// network activity. A missing value is a startup failure, not a runtime one.
func ValidateIngest() error {
	if MetaAccessToken == "" || MetaAdAccountID == "" {
		return fmt.Errorf("missing Meta Ads credentials (META_ACCESS_TOKEN, META_AD_ACCOUNT_ID)")
	}
	return nil
}

// ValidateServer checks what the chat UI needs at startup.
func ValidateServer() error {
	if AppPassword == "" {
		return fmt.Errorf("missing APP_PASSWORD")
	}
	if QdrantHost == "" {
		return fmt.Errorf("missing QDRANT_HOST")
	}
	if GeminiAPIKey == "" {
		return fmt.Errorf("missing GEMINI_API_KEY")
	}
	return nil
}
