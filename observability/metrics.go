package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "jangter_search_cycles_total",
			Help: "Completed search cycles",
		},
	)
	ItemsFoundTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jangter_items_found_total",
			Help: "Items returned by platform searches",
		},
		[]string{"platform"},
	)
	NewListingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jangter_new_listings_total",
			Help: "Listings stored for the first time",
		},
		[]string{"platform"},
	)
	PriceChangesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "jangter_price_changes_total",
			Help: "Price changes detected on known listings",
		},
	)
	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jangter_notifications_total",
			Help: "Notification delivery attempts by channel and result",
		},
		[]string{"channel", "result"},
	)
	ScrapeErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jangter_scrape_errors_total",
			Help: "Failed platform searches",
		},
		[]string{"platform"},
	)
	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "jangter_notification_queue_depth",
			Help: "Pending notification jobs",
		},
	)
)

func Start(port string) {
	prometheus.MustRegister(
		CyclesTotal,
		ItemsFoundTotal,
		NewListingsTotal,
		PriceChangesTotal,
		NotificationsTotal,
		ScrapeErrorsTotal,
		QueueDepth,
	)
	http.Handle("/metrics", promhttp.Handler())
	go http.ListenAndServe(":"+port, nil)
}
