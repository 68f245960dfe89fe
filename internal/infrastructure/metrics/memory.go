package metrics

import (
	"strconv"
	"sync"
	"time"
)

// MemoryCollector implements Collector for in-memory testing.
type MemoryCollector struct {
	mu sync.RWMutex

	Imports        map[string]int // "source/success" or "source/failure"
	InsertedRows   int
	SkippedRows    int
	Transitions    map[string]int // "event/result"
	Shortlists     []int
	AutoConfirmed  int
	AutoUnassigned int
	Extractions    map[bool]int
	CircuitStates  map[string]CircuitState
	Requests       map[string]int // "METHOD route status"
}

var _ Collector = (*MemoryCollector)(nil)

// NewMemoryCollector creates a new in-memory metrics collector.
func NewMemoryCollector() *MemoryCollector {
	return &MemoryCollector{
		Imports:       make(map[string]int),
		Transitions:   make(map[string]int),
		Extractions:   make(map[bool]int),
		CircuitStates: make(map[string]CircuitState),
		Requests:      make(map[string]int),
	}
}

func (m *MemoryCollector) RecordImport(source string, success bool, inserted, skipped int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Imports[source+"/"+successLabel(success)]++
	m.InsertedRows += inserted
	m.SkippedRows += skipped
}

func (m *MemoryCollector) RecordTransition(event string, result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Transitions[event+"/"+result]++
}

func (m *MemoryCollector) RecordShortlist(candidates int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Shortlists = append(m.Shortlists, candidates)
}

func (m *MemoryCollector) RecordAutoReconcile(confirmed, unassigned int, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AutoConfirmed += confirmed
	m.AutoUnassigned += unassigned
}

func (m *MemoryCollector) RecordExtraction(success bool, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Extractions[success]++
}

func (m *MemoryCollector) RecordCircuitState(name string, state CircuitState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CircuitStates[name] = state
}

func (m *MemoryCollector) RecordRequest(method, route string, status int, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests[method+" "+route+" "+strconv.Itoa(status)]++
}

// Transition returns the count for one event/result pair.
func (m *MemoryCollector) Transition(event, result string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Transitions[event+"/"+result]
}

// Import returns the count of imports for a source and outcome.
func (m *MemoryCollector) Import(source string, success bool) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Imports[source+"/"+successLabel(success)]
}
