// Package metrics provides Prometheus metrics for cloudbrowse.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Remote call metrics
	remoteCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cloudbrowse_remote_calls_total",
			Help: "Total number of remote calls by operation and outcome",
		},
		[]string{"op", "outcome"},
	)

	listingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cloudbrowse_listing_duration_seconds",
			Help:    "Time to list a remote directory",
			Buckets: prometheus.DefBuckets,
		},
	)

	listedEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cloudbrowse_listed_entries",
			Help: "Number of entries in the current directory listing",
		},
	)

	// Thumbnail metrics
	thumbnailsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cloudbrowse_thumbnails_total",
			Help: "Thumbnails processed by result (fetched, placeholder)",
		},
		[]string{"result"},
	)

	prefetchCancelled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cloudbrowse_thumbnail_prefetch_cancelled_total",
			Help: "Thumbnail prefetch loops stopped by cancellation",
		},
	)

	// Error reporting
	errorsReported = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cloudbrowse_errors_reported_total",
			Help: "Remote errors forwarded to the error reporter",
		},
		[]string{"op"},
	)

	// Transfer metrics
	bytesTransferred = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cloudbrowse_bytes_transferred_total",
			Help: "Bytes downloaded or uploaded",
		},
		[]string{"direction"},
	)

	// Event metrics
	subscribersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cloudbrowse_event_subscribers_active",
			Help: "Number of active state-update subscribers",
		},
	)

	eventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cloudbrowse_events_published_total",
			Help: "Total state-update events published",
		},
		[]string{"type"},
	)
)

// RecordRemoteCall records the outcome of a remote call.
func RecordRemoteCall(op string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	remoteCallsTotal.WithLabelValues(op, outcome).Inc()
}

// RecordListing records a completed listing.
func RecordListing(duration time.Duration, entries int) {
	listingDuration.Observe(duration.Seconds())
	listedEntries.Set(float64(entries))
}

// RecordThumbnail records a processed thumbnail.
func RecordThumbnail(placeholder bool) {
	if placeholder {
		thumbnailsTotal.WithLabelValues("placeholder").Inc()
		return
	}
	thumbnailsTotal.WithLabelValues("fetched").Inc()
}

// RecordPrefetchCancelled records a prefetch loop stopped by cancellation.
func RecordPrefetchCancelled() {
	prefetchCancelled.Inc()
}

// RecordErrorReported records an error forwarded to the reporter.
func RecordErrorReported(op string) {
	errorsReported.WithLabelValues(op).Inc()
}

// RecordDownload records downloaded bytes.
func RecordDownload(bytes int64) {
	bytesTransferred.WithLabelValues("download").Add(float64(bytes))
}

// RecordUpload records uploaded bytes.
func RecordUpload(bytes int64) {
	bytesTransferred.WithLabelValues("upload").Add(float64(bytes))
}

// SetSubscribersActive sets the active subscriber gauge.
func SetSubscribersActive(n int64) {
	subscribersActive.Set(float64(n))
}

// RecordEvent records a published event.
func RecordEvent(eventType string) {
	eventsPublished.WithLabelValues(eventType).Inc()
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
