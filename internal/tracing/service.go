// Package tracing keeps a bounded history of processor runs and streams new
// ones to subscribers.
package tracing

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/prasenjit/go-hooks/internal/models"
)

const (
	defaultMaxTraces  = 1000
	subscriberBacklog = 100
)

// Service records action run traces
type Service struct {
	mu          sync.RWMutex
	traces      []*models.Trace
	maxTraces   int
	subscribers map[string]chan *models.Trace
}

// NewService creates a tracing service keeping at most maxTraces traces
func NewService(maxTraces int) *Service {
	if maxTraces <= 0 {
		maxTraces = defaultMaxTraces
	}

	return &Service{
		traces:      make([]*models.Trace, 0),
		maxTraces:   maxTraces,
		subscribers: make(map[string]chan *models.Trace),
	}
}

// RecordTrace stores trace, dropping the oldest one when full, and offers it
// to every subscriber. Slow subscribers miss traces rather than block.
func (s *Service) RecordTrace(trace *models.Trace) {
	s.mu.Lock()

	// Generate ID if not set
	if trace.ID == "" {
		trace.ID = uuid.New().String()
	}
	// Set timestamp if not set
	if trace.Timestamp.IsZero() {
		trace.Timestamp = time.Now()
	}

	// Add to traces
	s.traces = append(s.traces, trace)

	// Trim if over max
	if len(s.traces) > s.maxTraces {
		s.traces = s.traces[len(s.traces)-s.maxTraces:]
	}

	s.mu.Unlock()

	// Sends happen under the read lock so Unsubscribe cannot close a channel
	// mid-send.
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, ch := range s.subscribers {
		select {
		case ch <- trace:
		default:
			// Channel full, skip
		}
	}
}

// GetTraces returns traces matching filter, newest first
func (s *Service) GetTraces(filter *models.TraceFilter) []*models.Trace {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.Trace, 0)

	for i := len(s.traces) - 1; i >= 0; i-- {
		trace := s.traces[i]
		// Apply filters
		if filter != nil && !matches(trace, filter) {
			continue
		}

		result = append(result, trace)

		// Apply limit
		if filter != nil && filter.Limit > 0 && len(result) >= filter.Limit {
			break
		}
	}

	return result
}

// matches reports whether trace passes every set field of filter
func matches(trace *models.Trace, filter *models.TraceFilter) bool {
	if filter.Destination != "" && !trace.HasDestination(filter.Destination) {
		return false
	}
	if filter.Method != "" && trace.Request.Method != filter.Method {
		return false
	}
	if filter.Status != 0 && trace.Response.Status != filter.Status {
		return false
	}
	if filter.FailedOnly && !trace.Failed() {
		return false
	}
	if !filter.StartTime.IsZero() && trace.Timestamp.Before(filter.StartTime) {
		return false
	}
	if !filter.EndTime.IsZero() && trace.Timestamp.After(filter.EndTime) {
		return false
	}
	return true
}

// GetTrace returns a single trace by ID, or nil
func (s *Service) GetTrace(id string) *models.Trace {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, trace := range s.traces {
		if trace.ID == id {
			return trace
		}
	}

	return nil
}

// ClearTraces removes all traces
func (s *Service) ClearTraces() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.traces = make([]*models.Trace, 0)
}

// Subscribe creates a subscription for live traces
func (s *Service) Subscribe() (string, <-chan *models.Trace) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	ch := make(chan *models.Trace, subscriberBacklog)
	s.subscribers[id] = ch

	return id, ch
}

// Unsubscribe removes a subscription and closes its channel
func (s *Service) Unsubscribe(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ch, ok := s.subscribers[id]; ok {
		close(ch)
		delete(s.subscribers, id)
	}
}

// GetStats returns tracing statistics
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]any{
		"totalTraces":       len(s.traces),
		"maxTraces":         s.maxTraces,
		"activeSubscribers": len(s.subscribers),
	}
}
