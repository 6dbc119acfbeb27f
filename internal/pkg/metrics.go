package pkg

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_requests_in_flight",
		Help: "Current number of in-flight HTTP requests.",
	})
	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests by method, route and status.",
	}, []string{"method", "path", "status"})
	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
	}, []string{"method", "path"})

	transfers = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wallet_transfers_total",
		Help: "Wallet transfers by result.",
	}, []string{"result"})
	votes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "poll_votes_total",
		Help: "Poll votes by result.",
	}, []string{"result"})
	toggles = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "toggles_total",
		Help: "Like and attendance toggles by kind and resulting state.",
	}, []string{"kind", "state"})
	outboxRelayed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_relayed_total",
		Help: "Outbox events relayed by status.",
	}, []string{"status"})
	driftFixed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "counter_drift_fixed_total",
		Help: "Denormalized counters rewritten by the reconciler.",
	})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		httpInFlight, httpRequests, httpDuration,
		transfers, votes, toggles, outboxRelayed, driftFixed,
	)
}

// MetricsMiddleware 统计请求数、耗时和并发数。path 用路由模板避免基数爆炸
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// MetricsHandler /metrics
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func ObserveTransfer(result string) { transfers.WithLabelValues(result).Inc() }
func ObserveVote(result string)     { votes.WithLabelValues(result).Inc() }
func ObserveToggle(kind string, on bool) {
	state := "off"
	if on {
		state = "on"
	}
	toggles.WithLabelValues(kind, state).Inc()
}
func ObserveOutbox(status string) { outboxRelayed.WithLabelValues(status).Inc() }
func ObserveDriftFixed(n int)     { driftFixed.Add(float64(n)) }
