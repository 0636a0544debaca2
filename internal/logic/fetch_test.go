package logic

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	logrustest "github.com/sirupsen/logrus/hooks/test"

	"crowsnest/internal/provider/twitter"
	"crowsnest/internal/store"
	"crowsnest/pkg/models"
)

type fakeTwitterClient struct {
	recentTweets func(ctx context.Context, userID string) (*twitter.RecentTweetsResponse, error)
	calls        int
}

func (f *fakeTwitterClient) RecentTweets(ctx context.Context, userID string) (*twitter.RecentTweetsResponse, error) {
	f.calls++
	if f.recentTweets != nil {
		return f.recentTweets(ctx, userID)
	}
	return rawResponse(), nil
}

type fakeTweetStore struct {
	upsertTweets    func(ctx context.Context, records []models.TweetRecord) error
	latestForAuthor func(ctx context.Context, authorID string) (*models.TweetRecord, error)
	upsertCalls     int
	upserted        []models.TweetRecord
}

func (f *fakeTweetStore) UpsertTweets(ctx context.Context, records []models.TweetRecord) error {
	f.upsertCalls++
	f.upserted = records
	if f.upsertTweets != nil {
		return f.upsertTweets(ctx, records)
	}
	return nil
}

func (f *fakeTweetStore) LatestForAuthor(ctx context.Context, authorID string) (*models.TweetRecord, error) {
	if f.latestForAuthor != nil {
		return f.latestForAuthor(ctx, authorID)
	}
	return nil, store.ErrNotFound
}

func cachedRecord() *models.TweetRecord {
	return &models.TweetRecord{
		TweetID:   "500",
		Content:   "stale but present",
		CreatedAt: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		Author:    models.TweetAuthor{ID: "12345", Username: "jane", Name: "Jane"},
		Metrics:   models.TweetMetrics{LikeCount: 1},
	}
}

func newTestFetcher(tw *fakeTwitterClient, st *fakeTweetStore) *Fetcher {
	logger, _ := logrustest.NewNullLogger()
	return NewFetcher(tw, st, logger, "", nil)
}

func TestFetchCacheHitSkipsUpstream(t *testing.T) {
	tw := &fakeTwitterClient{}
	st := &fakeTweetStore{
		latestForAuthor: func(ctx context.Context, authorID string) (*models.TweetRecord, error) {
			return cachedRecord(), nil
		},
	}
	f := newTestFetcher(tw, st)

	result, err := f.Fetch(context.Background(), "12345", false)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if tw.calls != 0 {
		t.Fatalf("expected zero upstream calls, got %d", tw.calls)
	}
	if !result.Cached {
		t.Fatal("expected cached result")
	}
	if len(result.Records) != 1 || result.Records[0].TweetID != "500" {
		t.Fatalf("unexpected records: %+v", result.Records)
	}
	if result.Warning != "" {
		t.Fatalf("unexpected warning: %q", result.Warning)
	}
}

func TestFetchCacheMissFetchesAndStores(t *testing.T) {
	tw := &fakeTwitterClient{}
	st := &fakeTweetStore{}
	f := newTestFetcher(tw, st)

	result, err := f.Fetch(context.Background(), "12345", false)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if tw.calls != 1 {
		t.Fatalf("expected exactly one upstream call, got %d", tw.calls)
	}
	if st.upsertCalls != 1 {
		t.Fatalf("expected exactly one store write, got %d", st.upsertCalls)
	}
	if result.Cached {
		t.Fatal("fresh fetch must not be marked cached")
	}
	if len(result.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(result.Records))
	}
	if len(st.upserted) != 2 || st.upserted[0].TweetID != "999" {
		t.Fatalf("unexpected upserted batch: %+v", st.upserted)
	}
}

func TestFetchForceBypassesWarmCache(t *testing.T) {
	tw := &fakeTwitterClient{}
	st := &fakeTweetStore{
		latestForAuthor: func(ctx context.Context, authorID string) (*models.TweetRecord, error) {
			return cachedRecord(), nil
		},
	}
	f := newTestFetcher(tw, st)

	result, err := f.Fetch(context.Background(), "12345", true)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if tw.calls != 1 {
		t.Fatalf("expected upstream call under force, got %d", tw.calls)
	}
	if result.Cached {
		t.Fatal("forced refresh must not be marked cached")
	}
}

func TestFetchDegradesToCacheOnUpstreamFailure(t *testing.T) {
	tw := &fakeTwitterClient{
		recentTweets: func(ctx context.Context, userID string) (*twitter.RecentTweetsResponse, error) {
			return nil, &twitter.APIError{StatusCode: 429, Body: "rate limited"}
		},
	}
	st := &fakeTweetStore{
		latestForAuthor: func(ctx context.Context, authorID string) (*models.TweetRecord, error) {
			return cachedRecord(), nil
		},
	}
	f := newTestFetcher(tw, st)

	result, err := f.Fetch(context.Background(), "12345", true)
	if err != nil {
		t.Fatalf("expected graceful degradation, got error: %v", err)
	}

	if result.Warning == "" {
		t.Fatal("expected non-empty warning on degraded response")
	}
	if !strings.Contains(result.Warning, "429") {
		t.Fatalf("expected warning to carry the upstream failure, got %q", result.Warning)
	}
	if len(result.Records) != 1 || result.Records[0].TweetID != "500" {
		t.Fatalf("expected cached record, got %+v", result.Records)
	}
	if result.Cached {
		t.Fatal("degraded response is not a cache hit")
	}
}

func TestFetchFailsWithoutCacheFallback(t *testing.T) {
	upstreamErr := &twitter.APIError{StatusCode: 429, Body: "rate limited"}
	tw := &fakeTwitterClient{
		recentTweets: func(ctx context.Context, userID string) (*twitter.RecentTweetsResponse, error) {
			return nil, upstreamErr
		},
	}
	st := &fakeTweetStore{}
	f := newTestFetcher(tw, st)

	_, err := f.Fetch(context.Background(), "12345", false)
	if err == nil {
		t.Fatal("expected error when no cached data exists")
	}
	if !twitter.IsRateLimited(err) {
		t.Fatalf("expected rate-limit classification, got %v", err)
	}
}

func TestFetchNormalizationFailureDegrades(t *testing.T) {
	tw := &fakeTwitterClient{
		recentTweets: func(ctx context.Context, userID string) (*twitter.RecentTweetsResponse, error) {
			raw := rawResponse()
			raw.Data[0].AuthorID = "67890" // no matching included user
			return raw, nil
		},
	}
	st := &fakeTweetStore{
		latestForAuthor: func(ctx context.Context, authorID string) (*models.TweetRecord, error) {
			return cachedRecord(), nil
		},
	}
	f := newTestFetcher(tw, st)

	result, err := f.Fetch(context.Background(), "12345", true)
	if err != nil {
		t.Fatalf("expected degradation on normalization failure, got %v", err)
	}
	if result.Warning == "" || !strings.Contains(result.Warning, "999") {
		t.Fatalf("expected warning naming the offending tweet, got %q", result.Warning)
	}
	if st.upsertCalls != 0 {
		t.Fatalf("no write may happen for a failed batch, got %d", st.upsertCalls)
	}
}

func TestFetchPersistenceFailureDegrades(t *testing.T) {
	tw := &fakeTwitterClient{}
	st := &fakeTweetStore{
		latestForAuthor: func(ctx context.Context, authorID string) (*models.TweetRecord, error) {
			return cachedRecord(), nil
		},
		upsertTweets: func(ctx context.Context, records []models.TweetRecord) error {
			return &store.WriteError{TweetID: records[0].TweetID, Err: errors.New("connection reset")}
		},
	}
	f := newTestFetcher(tw, st)

	result, err := f.Fetch(context.Background(), "12345", true)
	if err != nil {
		t.Fatalf("expected degradation on persistence failure, got %v", err)
	}
	if result.Warning == "" {
		t.Fatal("expected warning on degraded response")
	}
}

func TestFetchDefaultsSubject(t *testing.T) {
	tw := &fakeTwitterClient{}
	st := &fakeTweetStore{
		latestForAuthor: func(ctx context.Context, authorID string) (*models.TweetRecord, error) {
			if authorID != "44196397" {
				t.Fatalf("expected default subject id, got %s", authorID)
			}
			return cachedRecord(), nil
		},
	}
	logger, _ := logrustest.NewNullLogger()
	f := NewFetcher(tw, st, logger, "44196397", nil)

	if _, err := f.Fetch(context.Background(), "", false); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
}

func TestFetchNoSubjectConfigured(t *testing.T) {
	f := newTestFetcher(&fakeTwitterClient{}, &fakeTweetStore{})
	if _, err := f.Fetch(context.Background(), "", false); !errors.Is(err, ErrNoSubject) {
		t.Fatalf("expected ErrNoSubject, got %v", err)
	}
}

func TestFetchCacheLookupErrorTreatedAsMiss(t *testing.T) {
	tw := &fakeTwitterClient{}
	st := &fakeTweetStore{
		latestForAuthor: func(ctx context.Context, authorID string) (*models.TweetRecord, error) {
			return nil, errors.New("connection refused")
		},
	}
	f := newTestFetcher(tw, st)

	result, err := f.Fetch(context.Background(), "12345", false)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if tw.calls != 1 {
		t.Fatalf("expected upstream fetch on lookup failure, got %d calls", tw.calls)
	}
	if result.Cached {
		t.Fatal("lookup failure must not produce a cached response")
	}
}
