// Package metrics exposes ledger counters on a private Prometheus registry.
// A nil *Collector is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"transfer-ledger/shared"
)

const namespace = "ledger"

const (
	OutcomeOK = "ok"

	NotificationDelivered = "delivered"
	NotificationRetried   = "retried"
	NotificationDropped   = "dropped"
)

type Collector struct {
	registry *prometheus.Registry

	dispatched        *prometheus.CounterVec
	dispatchDuration  *prometheus.HistogramVec
	transfers         *prometheus.CounterVec
	notifications     *prometheus.CounterVec
	notificationQueue prometheus.Gauge
}

func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_dispatched_total",
			Help:      "Messages dispatched on the command and event buses, by message and outcome.",
		}, []string{"message", "outcome"}),
		dispatchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Time spent handling a dispatched message.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"message"}),
		transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfers_total",
			Help:      "Transfer attempts by outcome.",
		}, []string{"outcome"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification delivery attempts by outcome.",
		}, []string{"outcome"}),
		notificationQueue: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "notification_queue_length",
			Help:      "Notifications waiting for delivery.",
		}),
	}

	c.registry.MustRegister(
		c.dispatched,
		c.dispatchDuration,
		c.transfers,
		c.notifications,
		c.notificationQueue,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) ObserveDispatch(name shared.MessageName, err error, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.dispatched.WithLabelValues(name.String(), outcome(err)).Inc()
	c.dispatchDuration.WithLabelValues(name.String()).Observe(elapsed.Seconds())
}

func (c *Collector) ObserveTransfer(err error) {
	if c == nil {
		return
	}
	c.transfers.WithLabelValues(outcome(err)).Inc()
}

func (c *Collector) ObserveNotification(outcome string) {
	if c == nil {
		return
	}
	c.notifications.WithLabelValues(outcome).Inc()
}

func (c *Collector) SetNotificationQueue(length int) {
	if c == nil {
		return
	}
	c.notificationQueue.Set(float64(length))
}

// outcome labels a result by its error kind so label cardinality stays bounded.
func outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}
	return string(shared.KindOf(err))
}
