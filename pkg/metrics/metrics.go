package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "phonebook"

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)

	// SearchTotal counts searches by outcome: hit, empty or remapped.
	SearchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "search_total", Help: "Searches by outcome."},
		[]string{"outcome"},
	)
	SearchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Namespace: namespace, Name: "search_duration_seconds", Help: "Time spent matching and ranking one query.", Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5}},
	)
	LoginTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "login_total", Help: "Login attempts by result."},
		[]string{"result"},
	)

	CorpusPages = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: namespace, Name: "corpus_pages", Help: "Active pages in the current snapshot."},
	)
	PhoneDuplicates = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: namespace, Name: "phone_duplicates", Help: "Phone numbers found on more than one page."},
	)
	CorpusRefreshSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{Namespace: namespace, Name: "corpus_refresh_seconds", Help: "Time to load pages and rebuild the snapshot.", Buckets: prometheus.DefBuckets},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: namespace, Name: "http_request_duration_seconds", Help: "HTTP request latency.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(SearchTotal, SearchDuration, LoginTotal)
	reg.MustRegister(CorpusPages, PhoneDuplicates, CorpusRefreshSeconds)
	reg.MustRegister(HTTPRequestDuration)
}
