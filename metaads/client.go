package metaads

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/campaign-os/assistant/config"
)

// AdFields is the field projection requested for the /ads listing. Creative
// and insights are requested inline; ads the projection cannot expand get a
// follow-up detail fetch during enrichment.
const AdFields = "id,name,status," +
	"campaign{id,name,objective,status,daily_budget,start_time,stop_time}," +
	"adset{id,name,optimization_goal,status,daily_budget,targeting}," +
	"creative{title,body,image_hash,image_url,thumbnail_url,asset_feed_spec,object_story_spec}," +
	"insights{spend,impressions,clicks,ctr,cpc,cpm,actions,purchase_roas}"

// Client talks to the Meta Graph API for one ad account.
type Client struct {
	HTTPClient *http.Client

	baseURL    string
	version    string
	token      string
	accountID  string
	limiter    *rate.Limiter
	maxRetries int
	retryDelay time.Duration
}

// NewClient builds a client from package config. Credentials are assumed
// validated by config.ValidateIngest.
func NewClient() *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: config.MetaRequestTimeout},
		baseURL:    config.MetaBaseURL,
		version:    config.MetaAPIVersion,
		token:      config.MetaAccessToken,
		accountID:  config.MetaAdAccountID,
		limiter:    rate.NewLimiter(rate.Every(200*time.Millisecond), 1),
		maxRetries: config.MetaPageMaxRetries,
		retryDelay: config.MetaPageRetryDelay,
	}
}

// objectURL builds a versioned Graph API URL for one object with query params.
// The access token always rides in the query string, as the API expects.
func (c *Client) objectURL(objectID string, params url.Values) string {
	if params == nil {
		params = url.Values{}
	}
	params.Set("access_token", c.token)
	return fmt.Sprintf("%s/%s/%s?%s", c.baseURL, c.version, objectID, params.Encode())
}

// get performs one rate-limited request and returns the body and status code.
// Transport failures return status 0.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

type adsPage struct {
	Data   []*Ad `json:"data"`
	Paging struct {
		Next string `json:"next"`
	} `json:"paging"`
	Error *graphError `json:"error"`
}

type graphError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

func (e *graphError) Error() string {
	return fmt.Sprintf("graph api error %d (%s): %s", e.Code, e.Type, e.Message)
}

// FetchAds walks the paginated /ads listing for the account and returns every
// ad. Server errors and transport failures retry the same page up to the
// configured cap with a fixed delay; exhausting the cap returns the pages
// collected so far together with an error naming the failed page. Client
// errors (4xx) abort pagination and keep partial results without an error,
// since retrying a rejected request cannot succeed.
func (c *Client) FetchAds(ctx context.Context) ([]*Ad, error) {
	params := url.Values{}
	params.Set("fields", AdFields)
	params.Set("limit", fmt.Sprintf("%d", config.MetaPageSize))
	next := c.objectURL("act_"+c.accountID+"/ads", params)

	var ads []*Ad
	for page := 1; next != ""; page++ {
		body, retryErr := c.fetchPage(ctx, next, page)
		if retryErr != nil {
			return ads, retryErr
		}
		if body == nil {
			// 4xx: logged inside fetchPage, pagination over.
			return ads, nil
		}

		var pg adsPage
		if err := json.Unmarshal(body, &pg); err != nil {
			return ads, fmt.Errorf("decoding ads page %d: %w", page, err)
		}
		if pg.Error != nil {
			log.Printf("[metaads] page %d rejected: %v", page, pg.Error)
			return ads, nil
		}
		ads = append(ads, pg.Data...)
		log.Printf("[metaads] page %d: %d ads (total %d)", page, len(pg.Data), len(ads))
		next = pg.Paging.Next
	}
	return ads, nil
}

// fetchPage retries one page URL on 5xx/transport errors. A nil body with nil
// error means a 4xx response ended pagination.
func (c *Client) fetchPage(ctx context.Context, pageURL string, page int) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			log.Printf("[metaads] page %d retry %d/%d: %v", page, attempt, c.maxRetries, lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}
		body, status, err := c.get(ctx, pageURL)
		switch {
		case err != nil:
			lastErr = err
		case status >= 500:
			lastErr = fmt.Errorf("server error %d", status)
		case status >= 400:
			log.Printf("[metaads] page %d: client error %d, stopping pagination: %s", page, status, truncate(body, 200))
			return nil, nil
		default:
			return body, nil
		}
	}
	return nil, fmt.Errorf("page %d failed after %d retries: %w", page, c.maxRetries, lastErr)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
