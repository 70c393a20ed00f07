package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/prasenjit/go-hooks/internal/action"
	"github.com/prasenjit/go-hooks/internal/models"
	"github.com/prasenjit/go-hooks/internal/stats"
	"github.com/prasenjit/go-hooks/internal/storage"
	"github.com/prasenjit/go-hooks/internal/template"
	"github.com/prasenjit/go-hooks/internal/tracing"
	"github.com/prasenjit/go-hooks/internal/variables"
)

// Handler handles API requests
type Handler struct {
	store          storage.Storage
	vars           *variables.Store
	statsCollector *stats.Collector
	tracingService *tracing.Service
	logger         *slog.Logger
}

// NewHandler creates a new API handler
func NewHandler(store storage.Storage, vars *variables.Store, statsCollector *stats.Collector, tracingService *tracing.Service, logger *slog.Logger) *Handler {
	return &Handler{
		store:          store,
		vars:           vars,
		statsCollector: statsCollector,
		tracingService: tracingService,
		logger:         logger,
	}
}

// validateActions returns the problems of every action, prefixed by index
func validateActions(actions []models.Action) []string {
	var problems []string
	for i, a := range actions {
		err := action.Validate(a)
		if err == nil {
			continue
		}
		var verr *action.ValidationError
		if errors.As(err, &verr) {
			for _, p := range verr.Problems {
				problems = append(problems, "action "+strconv.Itoa(i)+": "+p)
			}
			continue
		}
		problems = append(problems, "action "+strconv.Itoa(i)+": "+err.Error())
	}
	return problems
}

// storageStatus maps storage errors to HTTP status codes
func storageStatus(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// ListActionSets returns all action sets
func (h *Handler) ListActionSets(c *gin.Context) {
	sets, err := h.store.GetAllActionSets()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, sets)
}

// CreateActionSet creates a new action set
func (h *Handler) CreateActionSet(c *gin.Context) {
	var input models.ActionSetInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	// Reject the whole set if any action is invalid
	if problems := validateActions(input.Actions); len(problems) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid actions", "problems": problems})
		return
	}

	// Generate ID
	now := time.Now()
	set := &models.ActionSet{
		ID:          uuid.New().String(),
		Name:        input.Name,
		Description: input.Description,
		Enabled:     input.Enabled,
		Actions:     input.Actions,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if set.Actions == nil {
		set.Actions = []models.Action{}
	}

	if err := h.store.CreateActionSet(set); err != nil {
		c.JSON(storageStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, set)
}

// GetActionSet returns a single action set
func (h *Handler) GetActionSet(c *gin.Context) {
	set, err := h.store.GetActionSet(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Action set not found"})
		return
	}

	c.JSON(http.StatusOK, set)
}

// UpdateActionSet updates an action set
func (h *Handler) UpdateActionSet(c *gin.Context) {
	set, err := h.store.GetActionSet(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Action set not found"})
		return
	}

	var update models.ActionSetUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Apply updates to a copy so a rejected update leaves the stored set alone
	updated := *set
	if update.Name != nil {
		updated.Name = *update.Name
	}
	if update.Description != nil {
		updated.Description = *update.Description
	}
	if update.Enabled != nil {
		updated.Enabled = *update.Enabled
	}
	if update.Actions != nil {
		if problems := validateActions(*update.Actions); len(problems) > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid actions", "problems": problems})
			return
		}
		updated.Actions = *update.Actions
	}
	updated.UpdatedAt = time.Now()

	if err := h.store.UpdateActionSet(&updated); err != nil {
		c.JSON(storageStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, &updated)
}

// DeleteActionSet deletes an action set
func (h *Handler) DeleteActionSet(c *gin.Context) {
	if err := h.store.DeleteActionSet(c.Param("id")); err != nil {
		c.JSON(storageStatus(err), gin.H{"error": "Action set not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Action set deleted"})
}

// EnableActionSet enables an action set
func (h *Handler) EnableActionSet(c *gin.Context) {
	h.setActionSetEnabled(c, true)
}

// DisableActionSet disables an action set
func (h *Handler) DisableActionSet(c *gin.Context) {
	h.setActionSetEnabled(c, false)
}

// setActionSetEnabled toggles a set without touching its actions
func (h *Handler) setActionSetEnabled(c *gin.Context, enabled bool) {
	set, err := h.store.GetActionSet(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Action set not found"})
		return
	}

	updated := *set
	updated.Enabled = enabled
	updated.UpdatedAt = time.Now()

	if err := h.store.UpdateActionSet(&updated); err != nil {
		c.JSON(storageStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": updated.ID, "enabled": updated.Enabled})
}

// ListVariables returns every variable
func (h *Handler) ListVariables(c *gin.Context) {
	vars, err := h.vars.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, vars)
}

// GetVariable returns a single variable
func (h *Handler) GetVariable(c *gin.Context) {
	v, ok := h.vars.Get(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Variable not found"})
		return
	}

	c.JSON(http.StatusOK, v)
}

// SetVariable assigns a variable
func (h *Handler) SetVariable(c *gin.Context) {
	var input struct {
		Value      any  `json:"value"`
		Persistent bool `json:"persistent"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	name := c.Param("name")
	if err := h.vars.Set(name, input.Value, input.Persistent); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	v, _ := h.vars.Get(name)
	c.JSON(http.StatusOK, v)
}

// DeleteVariable removes a variable
func (h *Handler) DeleteVariable(c *gin.Context) {
	if err := h.vars.Delete(c.Param("name")); err != nil {
		c.JSON(storageStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Variable deleted"})
}

// RunRequest is the body of a dry run
type RunRequest struct {
	Actions  []models.Action      `json:"actions"`
	Exchange models.ExchangeInput `json:"exchange"`
}

// RunResponse is the result of a dry run
type RunResponse struct {
	*action.Report
	Error string `json:"error,omitempty"`
}

// RunActions runs posted actions against a posted exchange. Signals are
// collected and returned, never applied.
func (h *Handler) RunActions(c *gin.Context) {
	var input RunRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Signals of this run shadow stored variables
	collector := action.NewCollector()
	processor := action.NewProcessor(collector,
		action.WithVariableEvaluator(template.NewEngine(template.Chain(collector, h.vars))),
		action.WithLogger(h.logger),
	)

	report, err := processor.Run(c.Request.Context(), input.Actions, input.Exchange.Exchange())
	if report == nil {
		report = &action.Report{}
	}
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, action.ErrMissingInput) {
			status = http.StatusBadRequest
		}
		c.JSON(status, RunResponse{Report: report, Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, RunResponse{Report: report})
}

// GetGlobalStats returns global statistics
func (h *Handler) GetGlobalStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.statsCollector.GetGlobalStats())
}

// GetActionStats returns statistics for the actions writing a destination
func (h *Handler) GetActionStats(c *gin.Context) {
	stats := h.statsCollector.GetActionStats(c.Param("destination"))
	if len(stats) == 0 {
		c.JSON(http.StatusOK, gin.H{"message": "No statistics available"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ResetStats resets all statistics
func (h *Handler) ResetStats(c *gin.Context) {
	h.statsCollector.Reset()
	c.JSON(http.StatusOK, gin.H{"message": "Statistics reset"})
}

// ListTraces returns traces
func (h *Handler) ListTraces(c *gin.Context) {
	filter := &models.TraceFilter{
		Limit: 100, // Default limit
	}

	if destination := c.Query("destination"); destination != "" {
		filter.Destination = destination
	}
	if method := c.Query("method"); method != "" {
		filter.Method = method
	}
	if status, err := strconv.Atoi(c.Query("status")); err == nil {
		filter.Status = status
	}
	if failed, err := strconv.ParseBool(c.Query("failed")); err == nil {
		filter.FailedOnly = failed
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 {
		filter.Limit = limit
	}

	traces := h.tracingService.GetTraces(filter)
	c.JSON(http.StatusOK, traces)
}

// GetTrace returns a single trace
func (h *Handler) GetTrace(c *gin.Context) {
	trace := h.tracingService.GetTrace(c.Param("id"))
	if trace == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Trace not found"})
		return
	}

	c.JSON(http.StatusOK, trace)
}

// ClearTraces clears all traces
func (h *Handler) ClearTraces(c *gin.Context) {
	h.tracingService.ClearTraces()
	c.JSON(http.StatusOK, gin.H{"message": "Traces cleared"})
}

// HealthCheck returns health status
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
