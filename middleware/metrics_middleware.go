package middleware

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"linkfinder/message"
)

// Metrics holds the collectors updated by MetricsMiddleware.
type Metrics struct {
	Requests *prometheus.CounterVec
	Duration prometheus.Histogram
	Links    prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "linkfinder",
			Name:      "requests_total",
			Help:      "Crawl requests handled, by outcome.",
		}, []string{"outcome"}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "linkfinder",
			Name:      "request_duration_seconds",
			Help:      "Time spent handling a crawl request.",
			Buckets:   prometheus.DefBuckets,
		}),
		Links: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "linkfinder",
			Name:      "links_found_total",
			Help:      "Links returned to clients.",
		}),
	}
	reg.MustRegister(m.Requests, m.Duration, m.Links)
	return m
}

func MetricsMiddleware(m *Metrics) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Request) *message.Response {
			start := time.Now()
			resp := next(ctx, req)
			m.Duration.Observe(time.Since(start).Seconds())
			if resp.Error != "" {
				m.Requests.WithLabelValues("error").Inc()
				return resp
			}
			m.Requests.WithLabelValues("ok").Inc()
			m.Links.Add(float64(len(resp.Links)))
			return resp
		}
	}
}
