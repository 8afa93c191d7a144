package observability

import (
	"strconv"
	"sync"
	"time"
)

// Engine event names counted by RecordEvent.
const (
	EventPageLoaded       = "page_loaded"
	EventPageFailed       = "page_failed"
	EventPageDiscarded    = "page_discarded"
	EventTicketCreated    = "ticket_created"
	EventTicketDegraded   = "ticket_degraded"
	EventTicketUpdated    = "ticket_updated"
	EventUpdateRolledBack = "update_rolled_back"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu           sync.Mutex
	requestCount map[string]int64
	errorCount   map[string]int64
	eventCount   map[string]int64
	latencyTotal map[string]time.Duration
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
		eventCount:   make(map[string]int64),
		latencyTotal: make(map[string]time.Duration),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.latencyTotal[key] += duration
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordEvent increments the counter for a ticket engine event.
func (m *Metrics) RecordEvent(name string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eventCount[name]++
}

// EventCount returns how many times name was recorded.
func (m *Metrics) EventCount(name string) int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.eventCount[name]
}

// Snapshot copies all counters for reporting. The "latency" section holds the
// mean request duration in milliseconds per request key.
func (m *Metrics) Snapshot() map[string]map[string]int64 {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return map[string]map[string]int64{
		"requests": copyCounts(m.requestCount),
		"errors":   copyCounts(m.errorCount),
		"events":   copyCounts(m.eventCount),
		"latency":  averageMillis(m.latencyTotal, m.requestCount),
	}
}

// averageMillis reports the mean request latency per key in milliseconds.
func averageMillis(total map[string]time.Duration, count map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(total))
	for k, d := range total {
		if n := count[k]; n > 0 {
			out[k] = d.Milliseconds() / n
		}
	}
	return out
}

func copyCounts(src map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
