package diagnostic

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/open-teleop/rcdrive/domain/teleop"
)

// DispatchMetrics summarizes dispatcher activity
type DispatchMetrics struct {
	Timestamp      time.Time `json:"timestamp"`
	SessionID      string    `json:"session_id"`
	Queued         int64     `json:"queued"`
	Succeeded      int64     `json:"succeeded"`
	Failed         int64     `json:"failed"`
	Unchanged      int64     `json:"unchanged"`      // evaluations with nothing new to send
	Coalesced      int64     `json:"coalesced"`      // changes deferred by an outstanding request
	LatencyAvgUs   int64     `json:"latency_avg_us"` // in microseconds
	LatencyMaxUs   int64     `json:"latency_max_us"` // in microseconds
	LastStatusCode int       `json:"last_status_code"`
	LastError      string    `json:"last_error,omitempty"`
}

// DiagnosticService collects dispatch metrics from dispatcher events
type DiagnosticService struct {
	mu      sync.RWMutex
	metrics DispatchMetrics
}

// Ensure DiagnosticService implements teleop.Observer
var _ teleop.Observer = (*DiagnosticService)(nil)

// NewDiagnosticService creates a new diagnostic service instance
func NewDiagnosticService(sessionID string) *DiagnosticService {
	return &DiagnosticService{
		metrics: DispatchMetrics{
			Timestamp: time.Now(),
			SessionID: sessionID,
		},
	}
}

// OnEvent updates the counters. It runs on the dispatcher goroutine.
func (s *DiagnosticService) OnEvent(e teleop.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := &s.metrics
	switch e.Kind {
	case teleop.EventQueued:
		m.Queued++
	case teleop.EventUnchanged:
		m.Unchanged++
	case teleop.EventCoalesced:
		m.Coalesced++
	case teleop.EventCompleted:
		m.LastStatusCode = e.Result.StatusCode
		if e.Err != nil {
			m.Failed++
			m.LastError = e.Err.Error()
		} else {
			m.Succeeded++
			m.LastError = ""
		}
		latency := e.Result.Latency.Microseconds()
		if m.LatencyAvgUs == 0 {
			m.LatencyAvgUs = latency
		} else {
			// Simple moving average
			m.LatencyAvgUs = (m.LatencyAvgUs + latency) / 2
		}
		if latency > m.LatencyMaxUs {
			m.LatencyMaxUs = latency
		}
	default:
		return
	}
	m.Timestamp = time.Now()
}

// GetMetrics returns the current dispatch metrics
func (s *DiagnosticService) GetMetrics() DispatchMetrics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.metrics
}

// GetMetricsHandler handles API requests for dispatch metrics
func (s *DiagnosticService) GetMetricsHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "success",
		"metrics": s.GetMetrics(),
	})
}
