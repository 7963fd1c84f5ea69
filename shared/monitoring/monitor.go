package monitoring

import (
	"fmt"
	"log"
	"sync"
	"time"
)

type Monitor struct {
	mu             sync.Mutex
	lastRunSuccess bool
	lastRunTime    time.Time
	lastSummary    string
	totalRuns      int
}

func NewMonitor() *Monitor {
	return &Monitor{}
}

func (m *Monitor) RecordSuccess(summary string, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = true
	m.lastRunTime = time.Now()
	m.lastSummary = summary
	m.totalRuns++
	m.mu.Unlock()

	log.Printf("✅ Digest completed - %s (took %v)", summary, duration)
}

func (m *Monitor) RecordPartialFailure(err error, duration time.Duration) {
	// Partial failures leave the health status untouched
	log.Printf("⚠️  PARTIAL FAILURE: %s (Duration: %v)", err.Error(), duration)
}

func (m *Monitor) RecordCriticalFailure(err error, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = false
	m.lastRunTime = time.Now()
	m.lastSummary = err.Error()
	m.totalRuns++
	m.mu.Unlock()

	log.Printf("🚨 CRITICAL FAILURE: %s (Duration: %v)", err.Error(), duration)
}

func (m *Monitor) IsHealthy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lastRunTime.IsZero() {
		return true // No runs yet, assume healthy
	}
	return m.lastRunSuccess
}

func (m *Monitor) GetStatusSummary() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lastRunTime.IsZero() {
		return "No digests yet"
	}

	if m.lastRunSuccess {
		return fmt.Sprintf("✅ Last digest %s: %s (%d runs total)",
			m.lastRunTime.Format("Jan 2 15:04"), m.lastSummary, m.totalRuns)
	}
	return fmt.Sprintf("❌ Last digest failed %s: %s (%d runs total)",
		m.lastRunTime.Format("Jan 2 15:04"), m.lastSummary, m.totalRuns)
}
