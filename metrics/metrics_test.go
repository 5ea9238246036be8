package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsCount(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.IncVisit()
	m.IncVisit()
	m.IncSubmission()
	m.ObserveTransition("pending", "scheduled")
	m.ObserveDelivery("email", false)
	m.ObserveDesignerAction("add")
	m.ObserveRequest("GET", "/api/forms", 200, 0.01)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.formVisits))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.submissions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("pending", "scheduled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.deliveries.WithLabelValues("email", "failed")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.deliveries.WithLabelValues("email", "sent")))
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.IncVisit()
	m.IncSubmission()
	m.ObserveTransition("pending", "cancelled")
	m.ObserveDelivery("sms", true)
	m.ObserveDesignerAction("move")
	m.ObserveRequest("POST", "/x", 500, 1)
}
