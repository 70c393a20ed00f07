package action

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prasenjit/go-hooks/internal/models"
)

// Report describes one processor run
type Report struct {
	Results  []models.ActionResult `json:"results"`
	Signals  []models.Signal       `json:"signals"`
	Executed int                   `json:"executed"`
}

// Processor runs lists of actions one after another
type Processor struct {
	sink Sink
	opts *options
}

// NewProcessor creates a processor emitting to sink
func NewProcessor(sink Sink, opts ...Option) *Processor {
	return &Processor{sink: sink, opts: newOptions(opts)}
}

// ProcessActions runs actions in order against ex and returns the response
// once every action has finished. The first failing action stops the run and
// its error is returned; signals already emitted are not rolled back.
func (p *Processor) ProcessActions(ctx context.Context, actions []models.Action, ex *models.Exchange) (*models.Response, error) {
	if _, err := p.Run(ctx, actions, ex); err != nil {
		return nil, err
	}
	return ex.Response, nil
}

// Run is ProcessActions with a per-action report. On failure the returned
// report covers the actions run so far, including the failed one.
func (p *Processor) Run(ctx context.Context, actions []models.Action, ex *models.Exchange) (*Report, error) {
	if ex == nil || ex.Request == nil || ex.Response == nil {
		return nil, ErrMissingInput
	}

	report := &Report{}
	var mu sync.Mutex
	sink := SinkFunc(func(ctx context.Context, signal models.Signal) error {
		if err := p.sink.Emit(ctx, signal); err != nil {
			return err
		}
		mu.Lock()
		report.Signals = append(report.Signals, signal)
		mu.Unlock()
		return nil
	})

	bodies := newBodyCache(ex)
	for i, a := range actions {
		result := models.ActionResult{
			Index:       i,
			Source:      a.Source,
			Action:      a.Action,
			Destination: a.Destination,
		}

		if !a.IsEnabled() {
			p.opts.logger.Debug("skipping disabled action", "index", i, "destination", a.Destination)
			result.Skipped = true
			report.Results = append(report.Results, result)
			continue
		}

		if p.opts.variables != nil {
			a = p.opts.variables.EvaluateAction(a.Copy())
		}

		start := time.Now()
		executed, err := p.runOne(ctx, a, sink, bodies)
		result.Duration = time.Since(start).Nanoseconds()
		result.Executed = executed

		if err != nil {
			result.Error = err.Error()
			report.Results = append(report.Results, result)
			p.opts.logger.Warn("action failed",
				"index", i,
				"destination", a.Destination,
				"error", err,
			)
			return report, fmt.Errorf("action %d (%s): %w", i, a.Destination, err)
		}

		if executed {
			report.Executed++
		}
		report.Results = append(report.Results, result)
	}

	return report, nil
}

func (p *Processor) runOne(ctx context.Context, a models.Action, sink Sink, bodies *bodyCache) (bool, error) {
	r, err := newRunner(a, sink, p.opts)
	if err != nil {
		return false, err
	}
	return r.run(ctx, bodies)
}
