package logic

import (
	"errors"
	"fmt"

	"crowsnest/internal/provider/twitter"
	"crowsnest/pkg/models"
)

// ErrMalformedResponse indicates the upstream payload is missing the tweet
// list or the included users and cannot be normalized.
var ErrMalformedResponse = errors.New("invalid twitter data format")

// AuthorResolutionError reports a tweet whose author_id has no matching
// entry in the included users. It fails the whole batch; a tweet without a
// resolvable author is a data-integrity violation, not something to drop.
type AuthorResolutionError struct {
	TweetID string
}

func (e *AuthorResolutionError) Error() string {
	return fmt.Sprintf("author not found for tweet %s", e.TweetID)
}

// NormalizeTweets flattens a raw timeline response into storage-ready
// records, resolving each tweet's author from the included users. Input
// order is preserved (newest-first per upstream convention). Normalization
// is all-or-nothing: any unresolvable author aborts the batch.
func NormalizeTweets(raw *twitter.RecentTweetsResponse) ([]models.TweetRecord, error) {
	if raw == nil || raw.Data == nil || raw.Includes.Users == nil {
		return nil, ErrMalformedResponse
	}

	usersByID := make(map[string]twitter.User, len(raw.Includes.Users))
	for _, u := range raw.Includes.Users {
		usersByID[u.ID] = u
	}

	records := make([]models.TweetRecord, 0, len(raw.Data))
	for _, tweet := range raw.Data {
		author, ok := usersByID[tweet.AuthorID]
		if !ok {
			return nil, &AuthorResolutionError{TweetID: tweet.ID}
		}

		records = append(records, models.TweetRecord{
			TweetID:   tweet.ID,
			Content:   tweet.Text,
			CreatedAt: tweet.CreatedAt,
			Author: models.TweetAuthor{
				ID:              author.ID,
				Username:        author.Username,
				Name:            author.Name,
				ProfileImageURL: author.ProfileImageURL,
			},
			Metrics: models.TweetMetrics{
				LikeCount:       tweet.PublicMetrics.LikeCount,
				RetweetCount:    tweet.PublicMetrics.RetweetCount,
				ReplyCount:      tweet.PublicMetrics.ReplyCount,
				ImpressionCount: tweet.PublicMetrics.ImpressionCount,
			},
		})
	}

	return records, nil
}
