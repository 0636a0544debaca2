package main

import (
	"context"
	"net/http"
	"time"

	"crowsnest/internal/handlers"
	"crowsnest/internal/logic"
	"crowsnest/internal/metrics"
	"crowsnest/internal/provider/twitter"
	"crowsnest/internal/store"
	"crowsnest/internal/worker"
	"crowsnest/pkg/config"
	"crowsnest/pkg/database"
	"crowsnest/pkg/logging"
	"crowsnest/pkg/middleware"
	"crowsnest/pkg/monitoring"
	"crowsnest/pkg/server"
	"crowsnest/pkg/version"

	"github.com/gin-gonic/gin"
)

func main() {
	// Setup logger
	logger := logging.NewLoggerWithService("crowsnest")

	// Load environment variables
	config.LoadEnv(logger)

	logger.Info("Starting Crowsnest (Tweet Metrics Cache)")

	dbURL := config.RequireEnv("DATABASE_URL")

	// === Database Connection ===
	dbConfig := database.DefaultConfig()
	dbConfig.URL = dbURL
	db := database.MustConnect(dbConfig, logger)
	defer db.Close()

	// Initialize Store
	tweetStore := store.NewStore(db)

	if config.GetEnvBool("DB_AUTO_MIGRATE", true) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := tweetStore.EnsureSchema(ctx); err != nil {
			cancel()
			logger.WithError(err).Fatal("Failed to apply database schema")
		}
		cancel()
	}

	// === Configuration Loading ===
	// Twitter API config
	twConfig, err := twitter.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load Twitter configuration")
	}
	twClient := twitter.NewClient(twConfig)

	defaultUserID := config.RequireEnv("DEFAULT_TWITTER_USER_ID")

	// Setup monitoring
	healthChecker := monitoring.NewHealthChecker("crowsnest", version.Version)
	metricsCollector := monitoring.NewMetricsCollector("crowsnest", version.Version, version.GitCommit)

	// Create fetch pipeline metrics
	fetchMetrics := &metrics.Metrics{
		FetchRequests:    metricsCollector.NewCounter("tweet_fetch_requests_total", "Tweet fetch requests", []string{"outcome"}),
		UpstreamCalls:    metricsCollector.NewCounter("twitter_api_calls_total", "Twitter API calls", []string{"status"}),
		UpstreamDuration: metricsCollector.NewHistogram("twitter_api_call_duration_seconds", "Twitter API call duration", []string{"endpoint"}, nil),
		TweetsUpserted:   metricsCollector.NewCounter("tweets_upserted_total", "Tweet rows written", []string{"status"}),
	}

	// === Logic Initialization ===
	fetcher := logic.NewFetcher(twClient, tweetStore, logger, defaultUserID, fetchMetrics)

	healthChecker.AddCheck("database", monitoring.DatabaseHealthCheck(db))
	healthChecker.AddCheck("twitter_config", monitoring.ConfigurationHealthCheck(map[string]string{
		"TWITTER_BEARER_TOKEN":    twConfig.BearerToken,
		"DEFAULT_TWITTER_USER_ID": defaultUserID,
	}))

	// === Background Workers ===
	if interval := config.GetEnvDuration("REFRESH_INTERVAL", 0); interval > 0 {
		refreshWorker := worker.NewRefreshWorker(fetcher, logger, defaultUserID, interval)
		go refreshWorker.Run(context.Background())
	}

	// === Server Setup ===
	handlers.Init(fetcher, logger)

	serverConfig := server.DefaultConfig("crowsnest", "8080")

	app := server.SetupServiceRouter(logger, "crowsnest", healthChecker, metricsCollector)
	app.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "running", "version": version.Version})
	})

	api := app.Group("/api", middleware.AuthHeaderMiddleware())
	api.POST("/tweets/fetch", handlers.FetchTweets)
	api.GET("/tweets/fetch", handlers.FetchTweets)

	if err := server.Start(serverConfig, app, logger); err != nil {
		logger.WithError(err).Fatal("Crowsnest HTTP server failed")
	}
}
