package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds all Prometheus metrics for the crowsnest service
type Metrics struct {
	FetchRequests    *prometheus.CounterVec   // outcome: fresh|cached|degraded|error
	UpstreamCalls    *prometheus.CounterVec   // status: ok|error
	UpstreamDuration *prometheus.HistogramVec // twitter API call latency
	TweetsUpserted   *prometheus.CounterVec   // status: ok|error
}
