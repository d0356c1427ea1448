package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Helpers(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveUserLookup("find_one", "not_found")
	m.ObserveUserLookup("find_one", "not_found")
	m.CacheHit("user")
	m.CacheMiss("users")
	m.CacheEviction("updated")
	m.MessageConsumed("user_events")
	m.MessageFailed("user_events", "decode")
	m.ObserveDBQuery("SELECT", 3*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.UserLookupsTotal.WithLabelValues("find_one", "not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHitsTotal.WithLabelValues("user")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheMissesTotal.WithLabelValues("users")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheEvictionsTotal.WithLabelValues("updated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QueueMessagesConsumed.WithLabelValues("user_events")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QueueMessagesFailed.WithLabelValues("user_events", "decode")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.DBQueryDuration))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveUserLookup("find_all", "found")
		m.ObserveDBQuery("SELECT", time.Millisecond)
		m.CacheHit("user")
		m.CacheMiss("user")
		m.CacheEviction("deleted")
		m.MessagePublished("user_events")
		m.MessageConsumed("user_events")
		m.MessageFailed("user_events", "handler")
	})
}

func TestInitMetrics_Idempotent(t *testing.T) {
	InitMetrics()
	first := GlobalMetrics
	InitMetrics()

	assert.NotNil(t, first)
	assert.Same(t, first, GlobalMetrics)
}
