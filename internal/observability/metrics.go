package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "room_http_requests_total",
			Help: "Total number of HTTP requests processed by the room service.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "room_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	wsActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "room_ws_active_connections",
			Help: "Number of active websocket connections.",
		},
	)
	wsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "room_ws_events_total",
			Help: "Total number of websocket events.",
		},
		[]string{"event"},
	)
	sweepRoomsDeletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "room_cleanup_rooms_deleted_total",
			Help: "Total number of rooms deleted by the cleanup sweep.",
		},
	)
	sweepErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "room_cleanup_errors_total",
			Help: "Total number of errors encountered by the cleanup sweep.",
		},
	)
	sweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "room_cleanup_sweep_duration_seconds",
			Help:    "Cleanup sweep run durations in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)
	feedRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "room_feed_refreshes_total",
			Help: "Total number of message feed re-fetches by outcome.",
		},
		[]string{"outcome"},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "room_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		wsActiveConnections,
		wsEventsTotal,
		sweepRoomsDeletedTotal,
		sweepErrorsTotal,
		sweepDuration,
		feedRefreshTotal,
		amqpPublishErrorsTotal,
	)
}

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func IncWSActive() {
	wsActiveConnections.Inc()
}

func DecWSActive() {
	wsActiveConnections.Dec()
}

func IncWSEvent(event string) {
	wsEventsTotal.WithLabelValues(event).Inc()
}

func AddSweepRoomsDeleted(count int) {
	sweepRoomsDeletedTotal.Add(float64(count))
}

func AddSweepErrors(count int) {
	sweepErrorsTotal.Add(float64(count))
}

func ObserveSweepDuration(d time.Duration) {
	sweepDuration.Observe(d.Seconds())
}

func IncFeedRefresh(outcome string) {
	feedRefreshTotal.WithLabelValues(outcome).Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}
