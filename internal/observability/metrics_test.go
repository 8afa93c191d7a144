package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/tickets", "GET", 200, 10*time.Millisecond)
	m.RecordRequest("/tickets", "GET", 200, 30*time.Millisecond)
	m.RecordError("/tickets", "POST", "VALIDATION_FAILED")
	m.RecordEvent(EventTicketDegraded)

	snap := m.Snapshot()
	require.Equal(t, int64(2), snap["requests"]["/tickets|GET|200"])
	require.Equal(t, int64(1), snap["errors"]["/tickets|POST|VALIDATION_FAILED"])
	require.Equal(t, int64(20), snap["latency"]["/tickets|GET|200"])
	require.Equal(t, int64(1), m.EventCount(EventTicketDegraded))
	require.Zero(t, m.EventCount(EventPageLoaded))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, 0)
	m.RecordError("/", "GET", "X")
	m.RecordEvent(EventPageLoaded)
	require.Zero(t, m.EventCount(EventPageLoaded))
	require.Nil(t, m.Snapshot())
}
