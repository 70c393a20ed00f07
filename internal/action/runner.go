// Package action runs post-response actions against an exchange and emits
// the resulting variable signals.
package action

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/prasenjit/go-hooks/internal/condition"
	"github.com/prasenjit/go-hooks/internal/extractor"
	"github.com/prasenjit/go-hooks/internal/models"
)

const tracerName = "github.com/prasenjit/go-hooks/internal/action"

// signalKinds maps action kinds to the signal they emit
var signalKinds = map[string]models.SignalKind{
	models.ActionAssignVariable: models.SignalVariableUpdate,
	models.ActionStoreVariable:  models.SignalVariableStore,
}

// VariableEvaluator rewrites an action before it runs, typically replacing
// variable placeholders with current values.
type VariableEvaluator interface {
	EvaluateAction(a models.Action) models.Action
}

type options struct {
	conditions *condition.Evaluator
	variables  VariableEvaluator
	logger     *slog.Logger
	tracer     trace.Tracer
}

// Option configures a Runner or Processor
type Option func(*options)

// WithConditionEvaluator sets the evaluator used for action conditions
func WithConditionEvaluator(e *condition.Evaluator) Option {
	return func(o *options) {
		o.conditions = e
	}
}

// WithVariableEvaluator sets the collaborator applied to each enabled action
// right before it runs
func WithVariableEvaluator(v VariableEvaluator) Option {
	return func(o *options) {
		o.variables = v
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithTracerProvider sets the provider spans are created from. The global
// provider is used by default.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracer = tp.Tracer(tracerName)
	}
}

func newOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.conditions == nil {
		o.conditions = condition.NewEvaluator()
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(tracerName)
	}
	return o
}

// Runner executes a single action
type Runner struct {
	def  models.Action
	sink Sink
	opts *options
}

// NewRunner validates def and creates a runner emitting to sink. Disabled
// actions are not validated; running them is a no-op.
func NewRunner(def models.Action, sink Sink, opts ...Option) (*Runner, error) {
	return newRunner(def, sink, newOptions(opts))
}

func newRunner(def models.Action, sink Sink, opts *options) (*Runner, error) {
	if def.IsEnabled() {
		if err := Validate(def); err != nil {
			return nil, err
		}
	}
	return &Runner{def: def, sink: sink, opts: opts}, nil
}

// Run executes the action against ex. It returns true when the action
// executed and false when it was disabled or its conditions were not met.
func (r *Runner) Run(ctx context.Context, ex *models.Exchange) (bool, error) {
	if ex == nil {
		return false, ErrMissingInput
	}
	return r.run(ctx, newBodyCache(ex))
}

func (r *Runner) run(ctx context.Context, bodies *bodyCache) (bool, error) {
	if !r.def.IsEnabled() {
		return false, nil
	}

	ctx, span := r.opts.tracer.Start(ctx, "action.run", trace.WithAttributes(
		attribute.String("action.kind", r.def.Action),
		attribute.String("action.destination", r.def.Destination),
		attribute.String("action.source", r.def.Source),
	))
	defer span.End()

	executed, err := r.execute(ctx, bodies)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, err
	}
	span.SetAttributes(attribute.Bool("action.executed", executed))
	return executed, nil
}

func (r *Runner) execute(ctx context.Context, bodies *bodyCache) (bool, error) {
	src, err := bodies.source(ctx, DetermineBodyNeeds(r.def))
	if err != nil {
		return false, err
	}

	ex := extractor.New(src)
	if !r.opts.conditions.EvaluateAll(r.def.Conditions, ex) {
		r.opts.logger.Debug("action conditions not met",
			"destination", r.def.Destination,
			"source", r.def.Source,
		)
		return false, nil
	}

	value, found := ex.ExtractString(r.def.Source, r.def.Iterator)
	if !found {
		value = nil
	}

	kind, ok := signalKinds[r.def.Action]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownAction, r.def.Action)
	}

	signal := models.Signal{
		Kind:        kind,
		Destination: r.def.Destination,
		Value:       value,
		Found:       found,
	}
	if err := r.sink.Emit(ctx, signal); err != nil {
		return false, fmt.Errorf("failed to emit %s for %s: %w", kind, r.def.Destination, err)
	}
	return true, nil
}
