package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"crowsnest/internal/logic"
	"crowsnest/internal/provider/twitter"
	"crowsnest/pkg/api"
	"crowsnest/pkg/logging"
	"crowsnest/pkg/middleware"
)

type tweetFetcher interface {
	Fetch(ctx context.Context, userID string, force bool) (*logic.FetchResult, error)
}

var (
	fetcher tweetFetcher
	logger  logging.Logger
)

// Init initializes the handlers with the fetch orchestrator and logger
func Init(f tweetFetcher, log logging.Logger) {
	fetcher = f
	logger = log
}

type fetchRequest struct {
	UserID string `json:"userId"`
}

// FetchTweets serves the tweets for the requested user, refreshing from the
// Twitter API when no stored data exists or when the request carries
// force=true. Body is optional JSON {"userId": "..."}; without it the
// configured default subject is used.
func FetchTweets(c *gin.Context) {
	log := middleware.GetContextLogger(c, logger)

	var req fetchRequest
	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			log.WithError(err).Warn("Ignoring unparseable request body")
		}
	}

	force := c.Query("force") == "true"

	result, err := fetcher.Fetch(c.Request.Context(), req.UserID, force)
	if err != nil {
		log.WithError(err).Error("Tweet fetch failed")
		c.JSON(statusForError(err), api.ErrorResponse{Success: false, Error: err.Error()})
		return
	}

	if result.Warning != "" {
		log.WithField("warning", result.Warning).Warn("Serving degraded response")
	}

	c.JSON(http.StatusOK, api.FetchResponse{
		Success: true,
		Data:    result.Records,
		Cached:  result.Cached,
		Warning: result.Warning,
	})
}

// statusForError maps an unrecovered fetch failure to a response status:
// 429 when the failure indicates upstream rate limiting, 400 otherwise.
func statusForError(err error) int {
	if twitter.IsRateLimited(err) || strings.Contains(err.Error(), "429") {
		return http.StatusTooManyRequests
	}
	return http.StatusBadRequest
}
