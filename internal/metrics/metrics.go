// Package metrics exposes Prometheus metrics for the console monitor.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/atikulmunna/uartwatch/internal/model"
)

const namespace = "uartwatch"

// Metrics contains all the Prometheus metrics used by uartwatch.
type Metrics struct {
	Registry *prometheus.Registry

	BytesTotal         prometheus.Counter
	LinesTotal         *prometheus.CounterVec
	WatchdogAlerts     *prometheus.CounterVec
	WatchdogErrored    *prometheus.GaugeVec
	ReportFires        *prometheus.CounterVec
	NotificationsTotal *prometheus.CounterVec
}

// New creates and registers all metrics on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		BytesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_total",
			Help:      "Total number of bytes received from the console",
		}),
		LinesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_total",
			Help:      "Total number of console lines by classified level",
		}, []string{"level"}),
		WatchdogAlerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "watchdog_events_total",
			Help:      "Watchdog events raised, by watchdog and kind (watchdog or recovery)",
		}, []string{"watchdog", "kind"}),
		WatchdogErrored: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "watchdog_errored",
			Help:      "1 while a watchdog is in its error state",
		}, []string{"watchdog"}),
		ReportFires: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_fires_total",
			Help:      "Number of report summaries emitted per schedule",
		}, []string{"schedule"}),
		NotificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification send attempts by alerter and result",
		}, []string{"alerter", "result"}),
	}

	m.Registry.MustRegister(
		m.BytesTotal,
		m.LinesTotal,
		m.WatchdogAlerts,
		m.WatchdogErrored,
		m.ReportFires,
		m.NotificationsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveChunk counts received bytes.
func (m *Metrics) ObserveChunk(c model.Chunk) {
	m.BytesTotal.Add(float64(len(c.Data)))
}

// ObserveEntry counts a classified line.
func (m *Metrics) ObserveEntry(e model.LogEntry) {
	m.LinesTotal.WithLabelValues(e.Level).Inc()
}

// ObserveEvent updates watchdog and report metrics for an emitted event.
func (m *Metrics) ObserveEvent(ev model.Event) {
	switch ev.Kind {
	case model.KindWatchdog:
		m.WatchdogAlerts.WithLabelValues(ev.Origin, string(ev.Kind)).Inc()
		m.WatchdogErrored.WithLabelValues(ev.Origin).Set(1)
	case model.KindRecovery:
		m.WatchdogAlerts.WithLabelValues(ev.Origin, string(ev.Kind)).Inc()
		m.WatchdogErrored.WithLabelValues(ev.Origin).Set(0)
	case model.KindReport:
		m.ReportFires.WithLabelValues(ev.Origin).Inc()
	}
}

// ObserveNotification counts a send attempt; it matches notify.ResultFunc.
func (m *Metrics) ObserveNotification(alerter string, _ model.Event, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.NotificationsTotal.WithLabelValues(alerter, result).Inc()
}
