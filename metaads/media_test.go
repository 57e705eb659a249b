package metaads

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMaterializer(dir string) *Materializer {
	return &Materializer{
		Dir:        dir,
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func TestInferExtension(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://cdn.example.com/pic.jpg?sig=abc", ".jpg"},
		{"https://cdn.example.com/pic.PNG", ".png"},
		{"https://cdn.example.com/clip.mp4", ".mp4"},
		{"https://video.example.com/t/abc123?sig=x", ".mp4"},
		{"https://cdn.example.com/asset/mp4-stream/abc", ".mp4"},
		{"https://cdn.example.com/asset/abc", ".jpg"},
		{"https://cdn.example.com/a.verylongextension", ".jpg"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, inferExtension(tt.url), tt.url)
	}
}

func TestDownloadWritesDeterministicFilename(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "image-bytes")
	}))
	defer srv.Close()

	dir := t.TempDir()
	got := testMaterializer(dir).Download(context.Background(), srv.URL+"/pic.jpg", "ad1", "hashX", "img_")

	require.Equal(t, filepath.Join(dir, "img_ad1_hashX.jpg"), got)
	b, err := os.ReadFile(got)
	require.NoError(t, err)
	assert.Equal(t, "image-bytes", string(b))
}

func TestDownloadSkipsExistingFile(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		fmt.Fprint(w, "fresh")
	}))
	defer srv.Close()

	dir := t.TempDir()
	existing := filepath.Join(dir, "img_ad1_hashX.jpg")
	require.NoError(t, os.WriteFile(existing, []byte("stale"), 0o644))

	got := testMaterializer(dir).Download(context.Background(), srv.URL+"/pic.jpg", "ad1", "hashX", "img_")

	assert.Equal(t, existing, got)
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits), "existing file is never re-fetched")
	b, _ := os.ReadFile(existing)
	assert.Equal(t, "stale", string(b))
}

func TestDownloadFailureReturnsEmptyAndLeavesNoFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	dir := t.TempDir()
	got := testMaterializer(dir).Download(context.Background(), srv.URL+"/gone.jpg", "ad1", "ref", "img_")

	assert.Empty(t, got)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

type fakeUploader struct {
	calls []string
}

func (f *fakeUploader) UploadMedia(localPath, adID string) (string, error) {
	f.calls = append(f.calls, adID)
	return "https://b2.example.com/" + adID + "/" + filepath.Base(localPath), nil
}

func TestInjectMedia(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "bytes")
	}))
	defer srv.Close()

	ads := []*Ad{
		{ID: "a1", Creative: &Creative{ImageHash: "known"}},
		{ID: "a2", Creative: &Creative{
			ObjectStory: &ObjectStory{
				LinkData:  &LinkData{ChildAttachments: []*ChildAttachment{{ImageHash: "known"}, {ImageHash: "missing"}}},
				VideoData: &VideoData{VideoID: "vid"},
			},
		}},
	}
	images := map[string]string{"known": srv.URL + "/i.jpg"}
	videos := map[string]string{"vid": srv.URL + "/v.mp4"}

	up := &fakeUploader{}
	m := testMaterializer(t.TempDir())
	m.Uploader = up
	counts := m.InjectMedia(context.Background(), ads, images, videos)

	assert.Equal(t, 2, counts.ImagesResolved)
	assert.Equal(t, 1, counts.ImagesMissing)
	assert.Equal(t, 1, counts.VideosResolved)
	assert.Equal(t, 0, counts.VideosMissing)
	assert.Equal(t, 1, counts.Uploaded)

	assert.NotEmpty(t, ads[0].Creative.LocalImagePath)
	assert.Contains(t, ads[0].Creative.RemoteImageURL, "https://b2.example.com/a1/")
	cards := ads[1].Creative.ObjectStory.LinkData.ChildAttachments
	assert.NotEmpty(t, cards[0].LocalImagePath)
	assert.Empty(t, cards[1].LocalImagePath)
	assert.NotEmpty(t, ads[1].Creative.ObjectStory.VideoData.LocalVideoPath)
	assert.Equal(t, []string{"a1"}, up.calls, "only primary images upload")
}
