package twitter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"crowsnest/pkg/config"
)

const (
	defaultBaseURL = "https://api.twitter.com/2"
	defaultTimeout = 10 * time.Second

	// The dashboard shows the five most recent tweets; the fetch is fixed
	// to that page size.
	maxResults = "5"

	tweetFields = "created_at,public_metrics"
	userFields  = "username,name,profile_image_url"
	expansions  = "author_id"
)

// ErrMissingBearerToken indicates the client was constructed without a
// bearer credential. No network call is made in that state.
var ErrMissingBearerToken = errors.New("missing TWITTER_BEARER_TOKEN")

// Config holds Twitter API client configuration
type Config struct {
	BearerToken string
	BaseURL     string
	Timeout     time.Duration
}

// LoadConfig builds a client Config from the environment. The bearer token
// is required; base URL and timeout have defaults suitable for production.
func LoadConfig() (Config, error) {
	cfg := Config{
		BearerToken: config.GetEnv("TWITTER_BEARER_TOKEN", ""),
		BaseURL:     config.GetEnv("TWITTER_API_BASE_URL", defaultBaseURL),
		Timeout:     config.GetEnvDuration("TWITTER_API_TIMEOUT", defaultTimeout),
	}
	if cfg.BearerToken == "" {
		return Config{}, ErrMissingBearerToken
	}
	return cfg, nil
}

// Client is a Twitter API v2 client scoped to the recent-tweets lookup
type Client struct {
	bearerToken string
	baseURL     string
	httpClient  *http.Client
}

// NewClient creates a new Twitter API client from the given configuration
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		bearerToken: cfg.BearerToken,
		baseURL:     cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// RecentTweets fetches the most recent tweets for a user, with public
// metrics and the author expanded. It performs exactly one request and does
// not retry; rate limiting surfaces as an *APIError with status 429.
func (c *Client) RecentTweets(ctx context.Context, userID string) (*RecentTweetsResponse, error) {
	if c.bearerToken == "" {
		return nil, ErrMissingBearerToken
	}
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	endpoint := fmt.Sprintf("%s/users/%s/tweets", c.baseURL, url.PathEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	q := req.URL.Query()
	q.Set("max_results", maxResults)
	q.Set("tweet.fields", tweetFields)
	q.Set("user.fields", userFields)
	q.Set("expansions", expansions)
	req.URL.RawQuery = q.Encode()

	req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var parsed RecentTweetsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse twitter response: %w", err)
	}

	return &parsed, nil
}

// IsRateLimited reports whether err is a Twitter API rate-limit rejection
func IsRateLimited(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests
}
