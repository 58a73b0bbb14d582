package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters for the HTTP surface and the
// mail correlation loop.
type Metrics struct {
	mu               sync.Mutex
	requestCount     map[string]int64
	errorCount       map[string]int64
	mailCycles       int64
	mailCycleErrors  int64
	matchedReplies   int64
	unmatchedReplies int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
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

// RecordMailCycle counts one poll cycle, successful or aborted.
func (m *Metrics) RecordMailCycle(ok bool) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mailCycles++
	if !ok {
		m.mailCycleErrors++
	}
}

// RecordMatchedReply counts a reply appended to a ticket.
func (m *Metrics) RecordMatchedReply() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchedReplies++
}

// RecordUnmatchedReply counts a reply whose identifier matched no
// record. These are operator-visible rather than silently dropped.
func (m *Metrics) RecordUnmatchedReply() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unmatchedReplies++
}

// MailStats reports correlation counters.
func (m *Metrics) MailStats() (cycles, cycleErrors, matched, unmatched int64) {
	if m == nil {
		return 0, 0, 0, 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mailCycles, m.mailCycleErrors, m.matchedReplies, m.unmatchedReplies
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
