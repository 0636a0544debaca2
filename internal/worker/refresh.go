package worker

import (
	"context"
	"time"

	"crowsnest/internal/logic"
	"crowsnest/pkg/logging"
)

// tweetFetcher is the slice of the fetch orchestrator the worker needs.
type tweetFetcher interface {
	Fetch(ctx context.Context, userID string, force bool) (*logic.FetchResult, error)
}

// RefreshWorker periodically forces a refresh of the tracked account so the
// cache stays warm even when no requests arrive.
type RefreshWorker struct {
	fetcher  tweetFetcher
	logger   logging.Logger
	userID   string
	interval time.Duration
}

func NewRefreshWorker(fetcher tweetFetcher, logger logging.Logger, userID string, interval time.Duration) *RefreshWorker {
	return &RefreshWorker{
		fetcher:  fetcher,
		logger:   logger,
		userID:   userID,
		interval: interval,
	}
}

// Run blocks until ctx is cancelled. Each tick forces a refresh; failures are
// logged and the loop continues, a dead upstream must not kill the worker.
func (w *RefreshWorker) Run(ctx context.Context) {
	w.logger.WithFields(logging.Fields{
		"user_id":  w.userID,
		"interval": w.interval.String(),
	}).Info("Starting tweet refresh worker")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Tweet refresh worker stopped")
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

func (w *RefreshWorker) refresh(ctx context.Context) {
	result, err := w.fetcher.Fetch(ctx, w.userID, true)
	if err != nil {
		w.logger.WithFields(logging.Fields{
			"user_id": w.userID,
			"error":   err.Error(),
		}).Warn("Scheduled tweet refresh failed")
		return
	}

	fields := logging.Fields{
		"user_id": w.userID,
		"tweets":  len(result.Records),
	}
	if result.Warning != "" {
		fields["warning"] = result.Warning
		w.logger.WithFields(fields).Warn("Scheduled tweet refresh served stale data")
		return
	}
	w.logger.WithFields(fields).Info("Scheduled tweet refresh completed")
}
