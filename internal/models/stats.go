package models

import (
	"sync/atomic"
	"time"
)

// GlobalStats represents global statistics
type GlobalStats struct {
	TotalRuns     int64        `json:"totalRuns"`
	TotalFailures int64        `json:"totalFailures"`
	TotalExecuted int64        `json:"totalExecuted"`
	TotalSkipped  int64        `json:"totalSkipped"`
	AvgRunTimeMs  float64      `json:"avgRunTimeMs"`
	StartTime     time.Time    `json:"startTime"`
	Uptime        string       `json:"uptime"`
	TopActions    []ActionStat `json:"topActions"`
	RecentErrors  []ErrorStat  `json:"recentErrors"`
	RunsByHour    []HourlyStat `json:"runsByHour"`
}

// ActionStat represents statistics for actions writing one destination
type ActionStat struct {
	Destination  string  `json:"destination"`
	Action       string  `json:"action"`
	TotalRuns    int64   `json:"totalRuns"`
	Executed     int64   `json:"executed"`
	Unmet        int64   `json:"unmet"` // Conditions not satisfied
	Failed       int64   `json:"failed"`
	AvgRunTimeMs float64 `json:"avgRunTimeMs"`
	MinRunTimeMs float64 `json:"minRunTimeMs"`
	MaxRunTimeMs float64 `json:"maxRunTimeMs"`
	LastRunTime  string  `json:"lastRunTime,omitempty"`
}

// ErrorStat represents an error occurrence
type ErrorStat struct {
	Timestamp   time.Time `json:"timestamp"`
	Destination string    `json:"destination"`
	Action      string    `json:"action"`
	Error       string    `json:"error"`
}

// HourlyStat represents hourly run statistics
type HourlyStat struct {
	Hour   string `json:"hour"`
	Runs   int64  `json:"runs"`
	Errors int64  `json:"errors"`
}

// AtomicActionStat is a thread-safe version of action statistics
type AtomicActionStat struct {
	Destination string
	Action      string
	TotalRuns   atomic.Int64
	Executed    atomic.Int64
	Unmet       atomic.Int64
	Failed      atomic.Int64
	TotalTimeNs atomic.Int64
	MinTimeNs   atomic.Int64
	MaxTimeNs   atomic.Int64
	LastRunTime atomic.Value // stores time.Time
}

// ToActionStat converts to a regular ActionStat
func (a *AtomicActionStat) ToActionStat() ActionStat {
	total := a.TotalRuns.Load()
	totalTimeNs := a.TotalTimeNs.Load()
	var avgMs float64
	if total > 0 {
		avgMs = float64(totalTimeNs) / float64(total) / 1e6
	}

	var lastRun string
	if t, ok := a.LastRunTime.Load().(time.Time); ok && !t.IsZero() {
		lastRun = t.Format(time.RFC3339)
	}

	return ActionStat{
		Destination:  a.Destination,
		Action:       a.Action,
		TotalRuns:    total,
		Executed:     a.Executed.Load(),
		Unmet:        a.Unmet.Load(),
		Failed:       a.Failed.Load(),
		AvgRunTimeMs: avgMs,
		MinRunTimeMs: float64(a.MinTimeNs.Load()) / 1e6,
		MaxRunTimeMs: float64(a.MaxTimeNs.Load()) / 1e6,
		LastRunTime:  lastRun,
	}
}
