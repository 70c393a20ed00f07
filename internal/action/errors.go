package action

import (
	"errors"
	"fmt"
	"strings"

	"github.com/prasenjit/go-hooks/internal/condition"
	"github.com/prasenjit/go-hooks/internal/models"
)

var (
	// ErrUnknownAction is matched by validation errors naming an action kind
	// that has no handler
	ErrUnknownAction = errors.New("unknown action")

	// ErrMissingInput is returned when a run is started without an exchange
	ErrMissingInput = errors.New("expecting actions, a request and a response")
)

// ValidationError lists every problem found in one action definition
type ValidationError struct {
	Problems []string
	unknown  bool
}

func (e *ValidationError) Error() string {
	return "invalid action: " + strings.Join(e.Problems, "; ")
}

// Unwrap exposes ErrUnknownAction when the action kind was not recognized
func (e *ValidationError) Unwrap() error {
	if e.unknown {
		return ErrUnknownAction
	}
	return nil
}

// Validate checks an action definition. All problems are reported at once,
// including those of its enabled conditions.
func Validate(a models.Action) error {
	verr := &ValidationError{}

	if strings.TrimSpace(a.Source) == "" {
		verr.Problems = append(verr.Problems, "action source is missing")
	}
	switch {
	case a.Action == "":
		verr.Problems = append(verr.Problems, "action kind is missing")
	case !isKnownAction(a.Action):
		verr.Problems = append(verr.Problems, fmt.Sprintf("%s: %s", ErrUnknownAction, a.Action))
		verr.unknown = true
	}
	if strings.TrimSpace(a.Destination) == "" {
		verr.Problems = append(verr.Problems, "action destination is missing")
	}

	for i, cond := range a.Conditions {
		if !cond.IsEnabled() {
			continue
		}
		for _, p := range condition.Problems(cond) {
			verr.Problems = append(verr.Problems, fmt.Sprintf("condition %d: %s", i, p))
		}
	}

	if a.Iterator != nil {
		if strings.TrimSpace(a.Iterator.Source) == "" {
			verr.Problems = append(verr.Problems, "iterator source is missing")
		}
		if !models.IsValidOperator(a.Iterator.Operator) {
			verr.Problems = append(verr.Problems, fmt.Sprintf("unknown iterator operator %q", a.Iterator.Operator))
		}
	}

	if len(verr.Problems) == 0 {
		return nil
	}
	return verr
}

func isKnownAction(kind string) bool {
	_, ok := signalKinds[kind]
	return ok
}
