package dispatch

import (
	"sync"
	"time"
)

// Metrics is a point-in-time copy of the dispatcher counters.
type Metrics struct {
	TotalRequests       int64            `json:"totalRequests"`
	SuccessfulRequests  int64            `json:"successfulRequests"`
	FailedRequests      int64            `json:"failedRequests"`
	AverageResponseTime float64          `json:"averageResponseTime"` // milliseconds
	FunctionsUsed       map[string]int64 `json:"functionsUsed"`
	LastActivity        time.Time        `json:"lastActivity"`
}

type metricsRecorder struct {
	mu sync.Mutex
	m  Metrics
}

func newMetricsRecorder() *metricsRecorder {
	return &metricsRecorder{m: Metrics{FunctionsUsed: make(map[string]int64)}}
}

// record applies one completed request atomically. Usage is only counted for
// registered methods so that garbage method names cannot grow the map.
func (r *metricsRecorder) record(method string, registered, success bool, latency time.Duration, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.m.TotalRequests++
	if success {
		r.m.SuccessfulRequests++
	} else {
		r.m.FailedRequests++
	}
	ms := float64(latency) / float64(time.Millisecond)
	r.m.AverageResponseTime += (ms - r.m.AverageResponseTime) / float64(r.m.TotalRequests)
	if registered {
		r.m.FunctionsUsed[method]++
	}
	r.m.LastActivity = at
}

func (r *metricsRecorder) snapshot() Metrics {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := r.m
	cp.FunctionsUsed = make(map[string]int64, len(r.m.FunctionsUsed))
	for k, v := range r.m.FunctionsUsed {
		cp.FunctionsUsed[k] = v
	}
	return cp
}

func (r *metricsRecorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m = Metrics{FunctionsUsed: make(map[string]int64)}
}
