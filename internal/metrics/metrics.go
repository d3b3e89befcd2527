package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics collects counters for one counting run. All methods are safe for
// concurrent use.
type Metrics struct {
	recordCount   int64
	kmerCount     int64
	startTime     time.Time
	activeWorkers int32
	phaseStats    map[string]*PhaseStats
	mu            sync.RWMutex
}

type PhaseStats struct {
	Calls        int64
	TotalTime    int64
	LastExecTime time.Time
}

func NewMetrics() *Metrics {
	return &Metrics{
		startTime:  time.Now(),
		phaseStats: make(map[string]*PhaseStats),
	}
}

func (m *Metrics) AddRecords(n int64) {
	atomic.AddInt64(&m.recordCount, n)
}

func (m *Metrics) GetRecordCount() int64 {
	return atomic.LoadInt64(&m.recordCount)
}

func (m *Metrics) AddKmers(n int64) {
	atomic.AddInt64(&m.kmerCount, n)
}

func (m *Metrics) GetKmerCount() int64 {
	return atomic.LoadInt64(&m.kmerCount)
}

func (m *Metrics) WorkerStarted() {
	atomic.AddInt32(&m.activeWorkers, 1)
}

func (m *Metrics) WorkerDone() {
	atomic.AddInt32(&m.activeWorkers, -1)
}

func (m *Metrics) ActiveWorkers() int32 {
	return atomic.LoadInt32(&m.activeWorkers)
}

// AddPhase records one execution of a named pipeline phase such as "scan" or
// "reduce".
func (m *Metrics) AddPhase(phase string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats, exists := m.phaseStats[phase]
	if !exists {
		stats = &PhaseStats{}
		m.phaseStats[phase] = stats
	}

	stats.Calls++
	stats.TotalTime += duration.Nanoseconds()
	stats.LastExecTime = time.Now()
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := make(map[string]interface{})
	stats["uptime_in_seconds"] = int(time.Since(m.startTime).Seconds())
	stats["records_processed"] = m.GetRecordCount()
	stats["kmers_scanned"] = m.GetKmerCount()
	stats["active_workers"] = m.ActiveWorkers()

	phases := make(map[string]map[string]interface{})
	for phase, stat := range m.phaseStats {
		phases[phase] = map[string]interface{}{
			"calls":          stat.Calls,
			"total_time_us":  stat.TotalTime / 1000,
			"avg_time_us":    stat.TotalTime / stat.Calls / 1000,
			"last_exec_time": stat.LastExecTime,
		}
	}
	stats["phasestats"] = phases

	return stats
}
