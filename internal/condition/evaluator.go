// Package condition evaluates action conditions against an exchange.
package condition

import (
	"errors"
	"fmt"
	"strings"

	"github.com/prasenjit/go-hooks/internal/compare"
	"github.com/prasenjit/go-hooks/internal/extractor"
	"github.com/prasenjit/go-hooks/internal/models"
)

// ErrInvalidCondition is returned by Validate for malformed conditions
var ErrInvalidCondition = errors.New("invalid condition")

// Evaluator evaluates conditions against extracted exchange data
type Evaluator struct{}

// NewEvaluator creates a new condition evaluator
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Satisfied reports whether cond holds for the exchange behind ex.
// A disabled condition is never satisfied.
func (e *Evaluator) Satisfied(cond models.Condition, ex *extractor.Extractor) bool {
	if !cond.IsEnabled() {
		return false
	}
	return compare.Check(e.GetValue(cond.Source, ex), cond.Operator, cond.Condition)
}

// EvaluateAll evaluates all conditions in order
// All conditions must match (AND logic)
func (e *Evaluator) EvaluateAll(conditions []models.Condition, ex *extractor.Extractor) bool {
	if len(conditions) == 0 {
		return true
	}

	for _, cond := range conditions {
		if !e.Satisfied(cond, ex) {
			return false
		}
	}

	return true
}

// GetValue extracts the operand at source, or compare.Missing when the path
// does not resolve.
func (e *Evaluator) GetValue(source string, ex *extractor.Extractor) any {
	value, ok := ex.ExtractString(source, nil)
	if !ok {
		return compare.Missing
	}
	return value
}

// Problems lists everything wrong with cond. An empty result means the
// condition is well formed.
func Problems(cond models.Condition) []string {
	var problems []string
	if strings.TrimSpace(cond.Source) == "" {
		problems = append(problems, "condition source is missing")
	}
	switch {
	case cond.Operator == "":
		problems = append(problems, "condition operator is missing")
	case !models.IsValidOperator(cond.Operator):
		problems = append(problems, fmt.Sprintf("unknown condition operator %q", cond.Operator))
	}
	return problems
}

// Validate returns an ErrInvalidCondition error describing every problem of
// cond, or nil.
func Validate(cond models.Condition) error {
	problems := Problems(cond)
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidCondition, strings.Join(problems, "; "))
}
