package b2util

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/kothar/go-backblaze.v0"

	"github.com/campaign-os/assistant/cache"
	"github.com/campaign-os/assistant/config"
)

var (
	tokenCache *cache.Cache[string]
	b2Bucket   *backblaze.Bucket
)

// Init prepares the download-token cache and, when credentials are present,
// the upload bucket. Missing credentials disable uploads without failing
// startup, since B2 is an optional stage.
func Init() error {
	var err error
	tokenCache, err = cache.New[string]("b2-tokens", func(v string) int64 {
		return int64(len(v))
	})
	if err != nil {
		return err
	}

	if !Configured() {
		log.Printf("[b2] credentials not set, uploads disabled")
		return nil
	}
	b2, err := backblaze.NewB2(backblaze.Credentials{
		AccountID:      config.B2MasterKeyID,
		KeyID:          config.B2KeyID,
		ApplicationKey: config.B2AppKey,
	})
	if err != nil {
		return fmt.Errorf("b2 auth: %w", err)
	}
	b2Bucket, err = b2.Bucket(config.B2BucketName)
	if err != nil {
		return fmt.Errorf("b2 bucket %s: %w", config.B2BucketName, err)
	}
	return nil
}

// Configured reports whether B2 credentials are present.
func Configured() bool {
	return config.B2MasterKeyID != "" && config.B2KeyID != "" && config.B2AppKey != "" && config.B2BucketName != ""
}

// Uploader satisfies the materializer's upload hook. Zero value is usable
// once Init has run.
type Uploader struct{}

// UploadMedia pushes a local file under ad_creatives/<adID>/ and returns the
// public download URL.
func (Uploader) UploadMedia(localPath, adID string) (string, error) {
	return UploadFile(localPath, fmt.Sprintf("ad_creatives/%s/%s", adID, filepath.Base(localPath)))
}

// UploadFile uploads one local file to the given bucket key.
func UploadFile(localPath, key string) (string, error) {
	if b2Bucket == nil {
		return "", fmt.Errorf("b2 not configured")
	}
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", localPath, err)
	}
	defer f.Close()

	if _, err := b2Bucket.UploadFile(key, nil, f); err != nil {
		return "", fmt.Errorf("uploading %s: %w", key, err)
	}
	url := fmt.Sprintf("%s/file/%s/%s", config.B2BaseURL, config.B2BucketName, key)
	log.Printf("[b2] uploaded %s", key)
	return url, nil
}

// DownloadFile fetches a bucket key into memory. Used to restore chat
// sessions synced to B2.
func DownloadFile(key string) ([]byte, error) {
	if b2Bucket == nil {
		return nil, fmt.Errorf("b2 not configured")
	}
	_, reader, err := b2Bucket.DownloadFileByName(key)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", key, err)
	}
	defer reader.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DownloadTokenForPrefix returns a download authorization token scoped to one
// ad's media prefix, cached just under the token's server-side expiry.
func DownloadTokenForPrefix(prefix string) (string, error) {
	if token, ok := tokenCache.Get(prefix); ok {
		return token, nil
	}
	token, err := fetchDownloadToken(prefix)
	if err != nil {
		return "", err
	}
	ttl := time.Duration(config.B2DownloadTokenExpiry-600) * time.Second
	tokenCache.SetWithTTL(prefix, token, ttl)
	return token, nil
}

func fetchDownloadToken(prefix string) (string, error) {
	if !Configured() || config.B2BucketID == "" {
		return "", fmt.Errorf("b2 credentials not set")
	}

	req, err := http.NewRequest(http.MethodGet, config.B2AuthEndpoint, nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(config.B2KeyID, config.B2AppKey)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("b2 auth: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("b2 auth failed: %s", resp.Status)
	}
	var auth struct {
		APIURL    string `json:"apiUrl"`
		AuthToken string `json:"authorizationToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return "", fmt.Errorf("b2 auth decode: %w", err)
	}

	body, _ := json.Marshal(map[string]interface{}{
		"bucketId":               config.B2BucketID,
		"fileNamePrefix":         prefix,
		"validDurationInSeconds": int64(config.B2DownloadTokenExpiry),
	})
	req2, err := http.NewRequest(http.MethodPost, auth.APIURL+config.B2DownloadAuthEndpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req2.Header.Set("Authorization", auth.AuthToken)
	req2.Header.Set("Content-Type", "application/json")
	resp2, err := http.DefaultClient.Do(req2)
	if err != nil {
		return "", fmt.Errorf("b2 download authorization: %w", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusOK {
		return "", fmt.Errorf("b2 download authorization failed: %s", resp2.Status)
	}
	var token struct {
		AuthorizationToken string `json:"authorizationToken"`
	}
	if err := json.NewDecoder(resp2.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("b2 token decode: %w", err)
	}
	return token.AuthorizationToken, nil
}
