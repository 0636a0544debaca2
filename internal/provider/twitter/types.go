package twitter

import (
	"fmt"
	"net/http"
	"time"
)

// Tweet is a single tweet object as returned by the v2 timeline endpoint
type Tweet struct {
	ID            string        `json:"id"`
	Text          string        `json:"text"`
	CreatedAt     time.Time     `json:"created_at"`
	AuthorID      string        `json:"author_id"`
	PublicMetrics PublicMetrics `json:"public_metrics"`
}

// PublicMetrics holds a tweet's public engagement counters.
// ImpressionCount is not returned for every access tier and decodes to 0
// when absent.
type PublicMetrics struct {
	LikeCount       int `json:"like_count"`
	RetweetCount    int `json:"retweet_count"`
	ReplyCount      int `json:"reply_count"`
	ImpressionCount int `json:"impression_count"`
}

// User is an expanded author object from the includes section
type User struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	Name            string `json:"name"`
	ProfileImageURL string `json:"profile_image_url"`
}

// Includes carries the expanded objects referenced by the tweet list
type Includes struct {
	Users []User `json:"users"`
}

// RecentTweetsResponse is the raw payload of the recent-tweets request,
// tweets newest-first per upstream convention.
type RecentTweetsResponse struct {
	Data     []Tweet  `json:"data"`
	Includes Includes `json:"includes"`
}

// APIError represents a non-2xx response from the Twitter API.
// It carries the status code and raw body for diagnostics.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		// A 401 on the timeline endpoint usually means the account is
		// suspended or protected rather than a credential problem.
		return fmt.Sprintf("twitter account may be suspended or protected (%d)", e.StatusCode)
	default:
		return fmt.Sprintf("twitter API error (%d): %s", e.StatusCode, e.Body)
	}
}
