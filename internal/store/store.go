package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"crowsnest/pkg/models"
)

//go:embed schema.sql
var schemaSQL string

// ErrNotFound is returned when a lookup matches no stored tweet
var ErrNotFound = errors.New("record not found")

// WriteError reports a failed upsert, naming the tweet that could not be
// written. Records written earlier in the same batch stay committed.
type WriteError struct {
	TweetID string
	Err     error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to upsert tweet %s: %v", e.TweetID, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Store is the persistence gateway for tweet records. It owns the tweets
// table; callers hold only request-scoped copies of records.
type Store struct {
	db *sql.DB
}

// NewStore creates a tweet store backed by the given database
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema applies the embedded table definition. Safe to run on every
// startup; all statements are idempotent.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply tweets schema: %w", err)
	}
	return nil
}

// UpsertTweets writes records one at a time in input order. Each record is
// inserted or fully replaced, keyed by tweet id; metrics are snapshots, not
// accumulated. The first write failure aborts the remainder of the batch
// without rolling back earlier writes.
func (s *Store) UpsertTweets(ctx context.Context, records []models.TweetRecord) error {
	for i := range records {
		if err := s.upsertOne(ctx, &records[i]); err != nil {
			return &WriteError{TweetID: records[i].TweetID, Err: err}
		}
	}
	return nil
}

func (s *Store) upsertOne(ctx context.Context, rec *models.TweetRecord) error {
	query := `
		INSERT INTO tweets (tweet_id, content, created_at, author_id, author_username, author_name, author_profile_image_url, like_count, retweet_count, reply_count, impression_count, fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		ON CONFLICT (tweet_id) DO UPDATE SET
			content = EXCLUDED.content,
			created_at = EXCLUDED.created_at,
			author_id = EXCLUDED.author_id,
			author_username = EXCLUDED.author_username,
			author_name = EXCLUDED.author_name,
			author_profile_image_url = EXCLUDED.author_profile_image_url,
			like_count = EXCLUDED.like_count,
			retweet_count = EXCLUDED.retweet_count,
			reply_count = EXCLUDED.reply_count,
			impression_count = EXCLUDED.impression_count,
			fetched_at = NOW()
		RETURNING fetched_at
	`
	return s.db.QueryRowContext(ctx, query,
		rec.TweetID, rec.Content, rec.CreatedAt,
		rec.Author.ID, rec.Author.Username, rec.Author.Name, rec.Author.ProfileImageURL,
		rec.Metrics.LikeCount, rec.Metrics.RetweetCount, rec.Metrics.ReplyCount, rec.Metrics.ImpressionCount,
	).Scan(&rec.FetchedAt)
}

// LatestForAuthor returns the most recent stored tweet for an author by
// creation timestamp, or ErrNotFound when the author has no stored tweets.
func (s *Store) LatestForAuthor(ctx context.Context, authorID string) (*models.TweetRecord, error) {
	query := `
		SELECT tweet_id, content, created_at, author_id, author_username, author_name, author_profile_image_url, like_count, retweet_count, reply_count, impression_count, fetched_at
		FROM tweets
		WHERE author_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	var rec models.TweetRecord
	err := s.db.QueryRowContext(ctx, query, authorID).Scan(
		&rec.TweetID, &rec.Content, &rec.CreatedAt,
		&rec.Author.ID, &rec.Author.Username, &rec.Author.Name, &rec.Author.ProfileImageURL,
		&rec.Metrics.LikeCount, &rec.Metrics.RetweetCount, &rec.Metrics.ReplyCount, &rec.Metrics.ImpressionCount,
		&rec.FetchedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
