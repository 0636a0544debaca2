package logic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"crowsnest/internal/metrics"
	"crowsnest/internal/provider/twitter"
	"crowsnest/internal/store"
	"crowsnest/pkg/logging"
	"crowsnest/pkg/models"
)

// ErrNoSubject is returned when a request names no user and no default
// subject is configured.
var ErrNoSubject = errors.New("no user id supplied and no default configured")

type twitterClient interface {
	RecentTweets(ctx context.Context, userID string) (*twitter.RecentTweetsResponse, error)
}

type tweetStore interface {
	UpsertTweets(ctx context.Context, records []models.TweetRecord) error
	LatestForAuthor(ctx context.Context, authorID string) (*models.TweetRecord, error)
}

// FetchResult is the outcome of one fetch: the records to serve, whether
// they came from the cache, and a warning when stale data was served
// because the upstream refresh failed.
type FetchResult struct {
	Records []models.TweetRecord
	Cached  bool
	Warning string
}

// Fetcher decides per request whether to serve stored tweets or refresh
// them from the Twitter API, degrading to stored data when the refresh
// fails. Concurrent fetches for the same user converge because the store's
// upsert is idempotent per tweet id.
type Fetcher struct {
	twitter       twitterClient
	store         tweetStore
	logger        logging.Logger
	defaultUserID string
	metrics       *metrics.Metrics
}

// NewFetcher creates a Fetcher. defaultUserID is the subject used for
// requests that name no user; empty disables the fallback. metrics may be
// nil in tests.
func NewFetcher(tw twitterClient, st tweetStore, logger logging.Logger, defaultUserID string, m *metrics.Metrics) *Fetcher {
	return &Fetcher{
		twitter:       tw,
		store:         st,
		logger:        logger,
		defaultUserID: defaultUserID,
		metrics:       m,
	}
}

// Fetch serves the tweets for userID. With a warm cache and no force flag
// it returns the stored record without touching the upstream API. On a
// cache miss or forced refresh it fetches, normalizes and upserts the
// latest tweets; if that fails and a stored record exists, the stored data
// is served with a warning instead of failing the request.
func (f *Fetcher) Fetch(ctx context.Context, userID string, force bool) (*FetchResult, error) {
	if userID == "" {
		userID = f.defaultUserID
	}
	if userID == "" {
		return nil, ErrNoSubject
	}

	log := f.logger.WithFields(logging.Fields{"user_id": userID, "force": force})

	// The lookup runs even for forced refreshes so a failed refresh can
	// still fall back to the stored record.
	cached, err := f.store.LatestForAuthor(ctx, userID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		log.WithError(err).Warn("Cache lookup failed; treating as cache miss")
		cached = nil
	}

	if !force && cached != nil {
		f.countFetch("cached")
		return &FetchResult{Records: []models.TweetRecord{*cached}, Cached: true}, nil
	}

	records, err := f.refresh(ctx, userID)
	if err != nil {
		if cached != nil {
			f.countFetch("degraded")
			log.WithError(err).Warn("Refresh failed; serving cached data")
			return &FetchResult{
				Records: []models.TweetRecord{*cached},
				Warning: fmt.Sprintf("Twitter API error: %v. Returning cached data.", err),
			}, nil
		}
		f.countFetch("error")
		return nil, err
	}

	f.countFetch("fresh")
	return &FetchResult{Records: records}, nil
}

// refresh runs the upstream path: fetch, normalize, persist
func (f *Fetcher) refresh(ctx context.Context, userID string) ([]models.TweetRecord, error) {
	start := time.Now()
	raw, err := f.twitter.RecentTweets(ctx, userID)
	f.observeUpstream(start, err)
	if err != nil {
		return nil, err
	}

	records, err := NormalizeTweets(raw)
	if err != nil {
		return nil, err
	}

	if err := f.store.UpsertTweets(ctx, records); err != nil {
		f.countUpsert("error")
		return nil, err
	}
	f.countUpsert("ok")

	return records, nil
}

func (f *Fetcher) countFetch(outcome string) {
	if f.metrics != nil {
		f.metrics.FetchRequests.WithLabelValues(outcome).Inc()
	}
}

func (f *Fetcher) countUpsert(status string) {
	if f.metrics != nil {
		f.metrics.TweetsUpserted.WithLabelValues(status).Inc()
	}
}

func (f *Fetcher) observeUpstream(start time.Time, err error) {
	if f.metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	f.metrics.UpstreamCalls.WithLabelValues(status).Inc()
	f.metrics.UpstreamDuration.WithLabelValues("recent_tweets").Observe(time.Since(start).Seconds())
}
