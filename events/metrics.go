package events

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments registries, waiters and listeners. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registrations prometheus.Counter
	notifications *prometheus.CounterVec
	waits         *prometheus.CounterVec
	pending       prometheus.Gauge
	connections   *prometheus.CounterVec
	messages      *prometheus.CounterVec
}

// NewMetrics creates the deploy confirmation metrics and registers them on
// reg. A nil reg creates unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		registrations: f.NewCounter(prometheus.CounterOpts{
			Name: "embers_deploy_registrations_total",
			Help: "Total number of deploy ids registered for confirmation",
		}),
		notifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "embers_deploy_notifications_total",
			Help: "Total number of deploy confirmations received",
		}, []string{"result"}),
		waits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "embers_deploy_waits_total",
			Help: "Total number of completed confirmation waits",
		}, []string{"result"}),
		pending: f.NewGauge(prometheus.GaugeOpts{
			Name: "embers_deploy_pending",
			Help: "Number of deploy ids with parked waiters",
		}),
		connections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "embers_push_connections_total",
			Help: "Total number of push channel connection attempts",
		}, []string{"status"}),
		messages: f.NewCounterVec(prometheus.CounterOpts{
			Name: "embers_push_messages_total",
			Help: "Total number of push channel messages",
		}, []string{"kind"}),
	}
}

func (m *Metrics) registered() {
	if m == nil {
		return
	}
	m.registrations.Inc()
}

func (m *Metrics) notified() {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues("new").Inc()
}

func (m *Metrics) duplicate() {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues("duplicate").Inc()
}

func (m *Metrics) confirmed() {
	if m == nil {
		return
	}
	m.waits.WithLabelValues("confirmed").Inc()
}

func (m *Metrics) timedOut() {
	if m == nil {
		return
	}
	m.waits.WithLabelValues("timeout").Inc()
}

func (m *Metrics) pendingAdd(n float64) {
	if m == nil {
		return
	}
	m.pending.Add(n)
}

func (m *Metrics) connection(status string) {
	if m == nil {
		return
	}
	m.connections.WithLabelValues(status).Inc()
}

func (m *Metrics) message(kind string) {
	if m == nil {
		return
	}
	m.messages.WithLabelValues(kind).Inc()
}
