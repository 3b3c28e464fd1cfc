package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gradetrack", Name: "http_requests_total", Help: "Handled HTTP requests",
	}, []string{"method"})
	HandlerErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gradetrack", Name: "handler_errors_total", Help: "Requests answered with an error status",
	})
	GradeRecomputes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gradetrack", Name: "grade_recomputes_total", Help: "Grade aggregator runs",
	})
	DBPing = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "gradetrack", Name: "db_ping_seconds", Help: "DB ping latency",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(HTTPRequests, HandlerErrors, GradeRecomputes, DBPing)
}

func Handler() http.Handler { return promhttp.Handler() }

func ObserveDBPing(d time.Duration) { DBPing.Observe(d.Seconds()) }

// Middleware counts handled requests by method.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		HTTPRequests.WithLabelValues(r.Method).Inc()
		next.ServeHTTP(w, r)
	})
}
