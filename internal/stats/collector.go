// Package stats aggregates action run statistics for the admin API.
package stats

import (
	"sort"
	"sync"
	"time"

	"github.com/prasenjit/go-hooks/internal/models"
)

const (
	maxTopActions = 10
	hourKeyLayout = "2006-01-02-15"
)

// Collector collects and aggregates statistics
type Collector struct {
	mu             sync.RWMutex
	startTime      time.Time
	actions        map[string]*models.AtomicActionStat // destination|kind -> stats
	recentErrors   []models.ErrorStat
	hourlyStats    map[string]*hourlyCounter // "YYYY-MM-DD-HH" -> counter
	totalRuns      int64
	totalFailures  int64
	totalSkipped   int64
	totalRunTimeNs int64
	maxErrors      int
	maxHourlySlots int
}

// hourlyCounter counts runs within one clock hour
type hourlyCounter struct {
	Hour   string
	Runs   int64
	Errors int64
}

// NewCollector creates a new statistics collector
func NewCollector() *Collector {
	return &Collector{
		startTime:      time.Now(),
		actions:        make(map[string]*models.AtomicActionStat),
		recentErrors:   make([]models.ErrorStat, 0),
		hourlyStats:    make(map[string]*hourlyCounter),
		maxErrors:      100,
		maxHourlySlots: 168, // 7 days
	}
}

// RecordRun records one processor run: its per-action results, its total
// duration and whether it aborted.
func (c *Collector) RecordRun(results []models.ActionResult, duration time.Duration, failed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	c.totalRuns++
	c.totalRunTimeNs += duration.Nanoseconds()
	if failed {
		c.totalFailures++
	}

	// Skipped actions never ran, so they only count globally
	for _, r := range results {
		if r.Skipped {
			c.totalSkipped++
			continue
		}
		c.recordResult(r, now)
	}

	// Update hourly stats
	hourKey := now.Format(hourKeyLayout)
	hourly, ok := c.hourlyStats[hourKey]
	if !ok {
		hourly = &hourlyCounter{Hour: hourKey}
		c.hourlyStats[hourKey] = hourly
		c.cleanupOldHourlyStats()
	}
	hourly.Runs++
	if failed {
		hourly.Errors++
	}
}

// recordResult folds one action result into its per-action stat
func (c *Collector) recordResult(r models.ActionResult, now time.Time) {
	// Get or create action stats
	key := r.Destination + "|" + r.Action
	stat, ok := c.actions[key]
	if !ok {
		stat = &models.AtomicActionStat{
			Destination: r.Destination,
			Action:      r.Action,
		}
		stat.MinTimeNs.Store(r.Duration)
		c.actions[key] = stat
	}

	// Update stats
	stat.TotalRuns.Add(1)
	stat.TotalTimeNs.Add(r.Duration)
	stat.LastRunTime.Store(now)

	// Update min/max
	for {
		currentMin := stat.MinTimeNs.Load()
		if r.Duration >= currentMin || stat.MinTimeNs.CompareAndSwap(currentMin, r.Duration) {
			break
		}
	}
	for {
		currentMax := stat.MaxTimeNs.Load()
		if r.Duration <= currentMax || stat.MaxTimeNs.CompareAndSwap(currentMax, r.Duration) {
			break
		}
	}

	switch {
	case r.Error != "":
		stat.Failed.Add(1)
		c.recentErrors = append(c.recentErrors, models.ErrorStat{
			Timestamp:   now,
			Destination: r.Destination,
			Action:      r.Action,
			Error:       r.Error,
		})
		// Keep the latest errors only
		if len(c.recentErrors) > c.maxErrors {
			c.recentErrors = c.recentErrors[1:]
		}
	case r.Executed:
		stat.Executed.Add(1)
	default:
		stat.Unmet.Add(1)
	}
}

// cleanupOldHourlyStats removes hourly stats older than maxHourlySlots
func (c *Collector) cleanupOldHourlyStats() {
	if len(c.hourlyStats) <= c.maxHourlySlots {
		return
	}

	// Get sorted keys
	keys := make([]string, 0, len(c.hourlyStats))
	for k := range c.hourlyStats {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// Remove oldest entries
	toRemove := len(keys) - c.maxHourlySlots
	for i := 0; i < toRemove; i++ {
		delete(c.hourlyStats, keys[i])
	}
}

// GetGlobalStats returns global statistics
func (c *Collector) GetGlobalStats() *models.GlobalStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var executed int64
	actionStats := c.actionStats()
	for _, s := range actionStats {
		executed += s.Executed
	}

	// Top actions
	top := actionStats
	if len(top) > maxTopActions {
		top = top[:maxTopActions]
	}

	// Calculate average run time
	var avgRunTimeMs float64
	if c.totalRuns > 0 {
		avgRunTimeMs = float64(c.totalRunTimeNs) / float64(c.totalRuns) / 1e6
	}

	recent := make([]models.ErrorStat, len(c.recentErrors))
	copy(recent, c.recentErrors)

	return &models.GlobalStats{
		TotalRuns:     c.totalRuns,
		TotalFailures: c.totalFailures,
		TotalExecuted: executed,
		TotalSkipped:  c.totalSkipped,
		AvgRunTimeMs:  avgRunTimeMs,
		StartTime:     c.startTime,
		Uptime:        formatDuration(time.Since(c.startTime)),
		TopActions:    top,
		RecentErrors:  recent,
		RunsByHour:    c.buildHourlyStats(),
	}
}

// GetActionStats returns the statistics of every action writing destination
func (c *Collector) GetActionStats(destination string) []models.ActionStat {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.ActionStat, 0)
	for _, s := range c.actionStats() {
		if s.Destination == destination {
			out = append(out, s)
		}
	}
	return out
}

// actionStats snapshots all action stats, busiest first
func (c *Collector) actionStats() []models.ActionStat {
	out := make([]models.ActionStat, 0, len(c.actions))
	for _, a := range c.actions {
		out = append(out, a.ToActionStat())
	}
	// Sort by total runs (descending)
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalRuns != out[j].TotalRuns {
			return out[i].TotalRuns > out[j].TotalRuns
		}
		return out[i].Destination < out[j].Destination
	})
	return out
}

// buildHourlyStats builds the run counts of the last 24 hours
func (c *Collector) buildHourlyStats() []models.HourlyStat {
	now := time.Now()
	stats := make([]models.HourlyStat, 0, 24)

	for i := 23; i >= 0; i-- {
		hour := now.Add(-time.Duration(i) * time.Hour)
		stat := models.HourlyStat{Hour: hour.Format("15:00")}
		if hourly, ok := c.hourlyStats[hour.Format(hourKeyLayout)]; ok {
			stat.Runs = hourly.Runs
			stat.Errors = hourly.Errors
		}
		stats = append(stats, stat)
	}

	return stats
}

// Reset resets all statistics
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.startTime = time.Now()
	c.actions = make(map[string]*models.AtomicActionStat)
	c.recentErrors = make([]models.ErrorStat, 0)
	c.hourlyStats = make(map[string]*hourlyCounter)
	c.totalRuns = 0
	c.totalFailures = 0
	c.totalSkipped = 0
	c.totalRunTimeNs = 0
}

// formatDuration formats a duration in a human-readable format
func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Hour:
		return d.Round(time.Minute).String()
	case d >= time.Minute:
		return d.Round(time.Second).String()
	default:
		return d.Round(time.Millisecond).String()
	}
}
