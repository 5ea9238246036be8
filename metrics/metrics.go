package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes counters/histograms for the booking flows.
type Metrics struct {
	requestLatency  *prometheus.HistogramVec
	formVisits      prometheus.Counter
	submissions     prometheus.Counter
	transitions     *prometheus.CounterVec
	deliveries      *prometheus.CounterVec
	designerActions *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "talktrack",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency of HTTP requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		formVisits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "talktrack",
			Subsystem: "forms",
			Name:      "visits_total",
			Help:      "Total public form fetches",
		}),
		submissions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "talktrack",
			Subsystem: "forms",
			Name:      "submissions_total",
			Help:      "Total completed form submissions",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "talktrack",
			Subsystem: "appointments",
			Name:      "transitions_total",
			Help:      "Appointment status transitions",
		}, []string{"from", "to"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "talktrack",
			Subsystem: "notify",
			Name:      "deliveries_total",
			Help:      "Email and SMS dispatch attempts",
		}, []string{"channel", "status"}),
		designerActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "talktrack",
			Subsystem: "designer",
			Name:      "actions_total",
			Help:      "Designer session mutations",
		}, []string{"action"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestLatency, m.formVisits, m.submissions, m.transitions, m.deliveries, m.designerActions)
	return m
}

func (m *Metrics) ObserveRequest(method, route string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.requestLatency.WithLabelValues(method, route, strconv.Itoa(status)).Observe(seconds)
}

func (m *Metrics) IncVisit() {
	if m == nil {
		return
	}
	m.formVisits.Inc()
}

func (m *Metrics) IncSubmission() {
	if m == nil {
		return
	}
	m.submissions.Inc()
}

func (m *Metrics) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) ObserveDelivery(channel string, ok bool) {
	if m == nil {
		return
	}
	status := "sent"
	if !ok {
		status = "failed"
	}
	m.deliveries.WithLabelValues(channel, status).Inc()
}

func (m *Metrics) ObserveDesignerAction(action string) {
	if m == nil {
		return
	}
	m.designerActions.WithLabelValues(action).Inc()
}
