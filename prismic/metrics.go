package prismic

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "spacetraveling",
		Subsystem: "prismic",
		Name:      "requests_total",
		Help:      "Requests sent to the Prismic API by operation and status code.",
	}, []string{"operation", "code"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "spacetraveling",
		Subsystem: "prismic",
		Name:      "request_duration_seconds",
		Help:      "Latency of Prismic API requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
)

func observe(op string, code int, started time.Time) {
	status := "error"
	if code > 0 {
		status = strconv.Itoa(code)
	}
	requestsTotal.WithLabelValues(op, status).Inc()
	requestDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}
