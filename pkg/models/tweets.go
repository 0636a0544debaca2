package models

import (
	"time"
)

// TweetAuthor is the denormalized author snapshot embedded in a stored tweet.
// The snapshot is taken at fetch time; author renames are not tracked.
type TweetAuthor struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	Name            string `json:"name"`
	ProfileImageURL string `json:"profile_image_url"`
}

// TweetMetrics holds the public engagement counters of a tweet. Values are
// snapshots of upstream counters, fully replaced on every refresh.
type TweetMetrics struct {
	LikeCount       int `json:"like_count"`
	RetweetCount    int `json:"retweet_count"`
	ReplyCount      int `json:"reply_count"`
	ImpressionCount int `json:"impression_count"`
}

// TweetRecord is a stored tweet with its author and metrics snapshots.
// TweetID is the upstream identifier and the upsert conflict target.
type TweetRecord struct {
	TweetID   string       `json:"tweet_id"`
	Content   string       `json:"content"`
	CreatedAt time.Time    `json:"created_at"`
	Author    TweetAuthor  `json:"author"`
	Metrics   TweetMetrics `json:"metrics"`
	FetchedAt time.Time    `json:"fetched_at,omitempty"`
}
