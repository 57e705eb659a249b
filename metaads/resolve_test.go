package metaads

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastResolver() ResolverOptions {
	return ResolverOptions{
		ChunkSize:  3,
		ChunkDelay: -1,
		MaxRetries: 3,
		BaseDelay:  time.Millisecond,
	}
}

func TestResolveImageURLsChunking(t *testing.T) {
	var chunkSizes []int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var hashes []string
		require.NoError(t, json.Unmarshal([]byte(r.URL.Query().Get("hashes")), &hashes))
		chunkSizes = append(chunkSizes, len(hashes))

		out := imageBatch{}
		for _, h := range hashes {
			out.Data = append(out.Data, struct {
				Hash string `json:"hash"`
				URL  string `json:"url"`
			}{Hash: h, URL: "https://cdn/" + h + ".jpg"})
		}
		json.NewEncoder(w).Encode(out)
	}))
	defer srv.Close()

	hashes := []string{"h1", "h2", "h3", "h4", "h5", "h6", "h7"}
	got := newTestClient(srv.URL).ResolveImageURLs(context.Background(), hashes, fastResolver())

	// ceil(7/3) chunks, none above the cap
	assert.Equal(t, []int{3, 3, 1}, chunkSizes)
	require.Len(t, got, 7)
	assert.Equal(t, "https://cdn/h4.jpg", got["h4"])
}

func TestResolveImageURLsSkipsFailedChunk(t *testing.T) {
	var call int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&call, 1) == 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		var hashes []string
		json.Unmarshal([]byte(r.URL.Query().Get("hashes")), &hashes)
		out := imageBatch{}
		for _, h := range hashes {
			out.Data = append(out.Data, struct {
				Hash string `json:"hash"`
				URL  string `json:"url"`
			}{Hash: h, URL: "u-" + h})
		}
		json.NewEncoder(w).Encode(out)
	}))
	defer srv.Close()

	hashes := []string{"h1", "h2", "h3", "h4", "h5", "h6", "h7"}
	got := newTestClient(srv.URL).ResolveImageURLs(context.Background(), hashes, fastResolver())

	// middle chunk (h4,h5,h6) lost, the rest resolved
	assert.Len(t, got, 4)
	assert.Equal(t, "u-h1", got["h1"])
	assert.Equal(t, "u-h7", got["h7"])
	assert.NotContains(t, got, "h5")
}

func TestResolveImageURLsFirstAnswerWins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[{"hash":"h1","url":"first"},{"hash":"h1","url":"second"}]}`)
	}))
	defer srv.Close()

	got := newTestClient(srv.URL).ResolveImageURLs(context.Background(), []string{"h1"}, fastResolver())
	assert.Equal(t, "first", got["h1"])
}

func TestResolveVideoURLs(t *testing.T) {
	attempts := map[string]*int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/v24.0/")
		if attempts[id] == nil {
			attempts[id] = new(int32)
		}
		n := atomic.AddInt32(attempts[id], 1)
		switch id {
		case "ok":
			fmt.Fprint(w, `{"source":"https://video/ok.mp4"}`)
		case "denied":
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":{"message":"no permission","code":10}}`)
		case "gone":
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"error":{"message":"unsupported get request","code":100}}`)
		case "flaky":
			if n < 3 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			fmt.Fprint(w, `{"source":"https://video/flaky.mp4"}`)
		case "softmiss":
			// always OK but never carries a source field
			fmt.Fprint(w, `{"id":"softmiss"}`)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	got := newTestClient(srv.URL).ResolveVideoURLs(context.Background(),
		[]string{"ok", "denied", "gone", "flaky", "softmiss", "broken"}, fastResolver())

	assert.Equal(t, map[string]string{
		"ok":    "https://video/ok.mp4",
		"flaky": "https://video/flaky.mp4",
	}, got)

	assert.Equal(t, int32(1), *attempts["ok"])
	assert.Equal(t, int32(1), *attempts["denied"], "permission error is not retried")
	assert.Equal(t, int32(1), *attempts["gone"], "client errors are abandoned on the first reply")
	assert.Equal(t, int32(3), *attempts["flaky"])
	assert.Equal(t, int32(3), *attempts["softmiss"], "missing source is retried to the cap")
	assert.Equal(t, int32(3), *attempts["broken"])
}

func TestResolveVideoBackoffDoublesPerAttempt(t *testing.T) {
	var stamps []time.Time
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stamps = append(stamps, time.Now())
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	opts := fastResolver()
	opts.BaseDelay = 40 * time.Millisecond
	newTestClient(srv.URL).ResolveVideoURLs(context.Background(), []string{"v"}, opts)

	require.Len(t, stamps, 3)
	gap1 := stamps[1].Sub(stamps[0])
	gap2 := stamps[2].Sub(stamps[1])
	assert.GreaterOrEqual(t, gap1, 40*time.Millisecond)
	assert.GreaterOrEqual(t, gap2, 80*time.Millisecond)
}

func TestCollectMediaRefs(t *testing.T) {
	ads := []*Ad{
		{ID: "1", Creative: &Creative{
			ImageHash: "primary",
			ObjectStory: &ObjectStory{
				LinkData: &LinkData{ChildAttachments: []*ChildAttachment{
					{ImageHash: "card1"}, {ImageHash: "card2"}, {}},
				},
				VideoData: &VideoData{VideoID: "vid1"},
			},
		}},
		{ID: "2", Creative: &Creative{
			ImageHash:     "primary", // duplicate across ads
			AssetFeedSpec: &AssetFeedSpec{Videos: []*VideoAsset{{VideoID: "vid2"}, {VideoID: "vid1"}}},
			ObjectStory:   &ObjectStory{PhotoData: &PhotoData{ImageHash: "photo1"}},
		}},
		{ID: "3"}, // no creative
	}

	refs := CollectMediaRefs(ads)
	assert.Equal(t, []string{"card1", "card2", "photo1", "primary"}, refs.ImageHashes)
	assert.Equal(t, []string{"vid1", "vid2"}, refs.VideoIDs)
}
