package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "finrag"

// Stage labels.
const (
	StageDecompose  = "decompose"
	StageRetrieve   = "retrieve"
	StageSynthesize = "synthesize"
	StageTotal      = "total"
)

// Metrics holds the query pipeline collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry   *prometheus.Registry
	duration   *prometheus.HistogramVec
	errors     *prometheus.CounterVec
	subQueries prometheus.Histogram
}

// New registers the collectors on a fresh registry together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: reg,
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Query pipeline latency by stage.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_errors_total",
			Help:      "Failed query pipeline stages.",
		}, []string{"stage"}),
		subQueries: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sub_queries",
			Help:      "Sub-queries searched per request.",
			Buckets:   []float64{1, 2, 3, 4, 6, 8, 12},
		}),
	}
	reg.MustRegister(m.duration, m.errors, m.subQueries)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Timer starts timing stage. The returned func records the elapsed time.
func (m *Metrics) Timer(stage string) func() {
	if m == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		m.duration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) Error(stage string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(stage).Inc()
}

func (m *Metrics) SubQueries(n int) {
	if m == nil {
		return
	}
	m.subQueries.Observe(float64(n))
}

// Handler exposes the registry in the prometheus text format.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
