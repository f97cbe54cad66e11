package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.TaskTransition("OPEN", "ASSIGNED")
	m.TaskTransition("OPEN", "ASSIGNED")
	m.OfferEvent("accepted")
	m.TxConflict("accept_offer", "retried")
	m.SideEffectFailed("thread_message")
	m.ObserveCollaborator("openai", time.Now(), errors.New("timeout"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.taskTransitions.WithLabelValues("OPEN", "ASSIGNED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.offerEvents.WithLabelValues("accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.txConflicts.WithLabelValues("accept_offer", "retried")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sideEffectFailures.WithLabelValues("thread_message")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.TaskTransition("OPEN", "ASSIGNED")
		m.SubscriberOpened()
		m.SubscriberClosed()
		m.ObserveCollaborator("openai", time.Now(), nil)
	})
}
