package models

import (
	"time"
)

// Trace represents one processor run over a captured exchange
type Trace struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Duration  int64          `json:"duration"` // Duration in nanoseconds
	Request   TraceRequest   `json:"request"`
	Response  TraceResponse  `json:"response"`
	Results   []ActionResult `json:"results"`
	Signals   []Signal       `json:"signals"`
	Error     string         `json:"error,omitempty"`
}

// TraceRequest represents the captured request
type TraceRequest struct {
	Method  string `json:"method"`
	URL     string `json:"url"`
	Headers string `json:"headers"`
	Body    string `json:"body"`
}

// TraceResponse represents the captured response
type TraceResponse struct {
	Status  int    `json:"status"`
	URL     string `json:"url"`
	Headers string `json:"headers"`
	Body    string `json:"body"`
}

// Failed reports whether the run aborted with an error
func (t *Trace) Failed() bool {
	return t.Error != ""
}

// TraceFilter represents filters for querying traces
type TraceFilter struct {
	Destination string    `json:"destination,omitempty"`
	Method      string    `json:"method,omitempty"`
	Status      int       `json:"status,omitempty"`
	FailedOnly  bool      `json:"failedOnly,omitempty"`
	StartTime   time.Time `json:"startTime,omitempty"`
	EndTime     time.Time `json:"endTime,omitempty"`
	Limit       int       `json:"limit,omitempty"`
}

// HasDestination reports whether any result of the trace targeted name
func (t *Trace) HasDestination(name string) bool {
	for _, r := range t.Results {
		if r.Destination == name {
			return true
		}
	}
	return false
}
