package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	ListingFetches = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "threadfeed_listing_fetches_total", Help: "Listing fetches issued"},
	)
	FetchErrors = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "threadfeed_fetch_errors_total", Help: "Listing fetches that ended in an error notification"},
	)
	RowsInserted = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "threadfeed_rows_inserted_total", Help: "Thread rows appended to the list"},
	)
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests"},
		[]string{"method", "path", "status"},
	)
)

func MustRegister() {
	prometheus.MustRegister(ListingFetches, FetchErrors, RowsInserted, RequestsTotal)
}
