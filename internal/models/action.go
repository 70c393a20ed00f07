package models

import (
	"time"
)

// Supported action kinds
const (
	ActionAssignVariable = "assign-variable"
	ActionStoreVariable  = "store-variable"
)

// ValidActions returns all valid action kinds
func ValidActions() []string {
	return []string{ActionAssignVariable, ActionStoreVariable}
}

// Action describes one post-response rule: read a value at Source and hand it
// to Destination under the Action kind.
type Action struct {
	Enabled     *bool       `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Source      string      `json:"source" yaml:"source"`
	Action      string      `json:"action" yaml:"action"`
	Destination string      `json:"destination" yaml:"destination"`
	Conditions  []Condition `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	Iterator    *Iterator   `json:"iterator,omitempty" yaml:"iterator,omitempty"`
}

// IsEnabled reports whether the action is enabled (default true)
func (a Action) IsEnabled() bool {
	return a.Enabled == nil || *a.Enabled
}

// Copy returns a copy of the action whose conditions and iterator can be
// modified without touching the original.
func (a Action) Copy() Action {
	out := a
	if a.Iterator != nil {
		it := *a.Iterator
		out.Iterator = &it
	}
	if a.Conditions != nil {
		out.Conditions = make([]Condition, len(a.Conditions))
		copy(out.Conditions, a.Conditions)
	}
	return out
}

// Iterator selects which element of a repeated collection an extraction
// targets. Source marks the collection with a "*" segment, e.g. items.*.id.
type Iterator struct {
	Source    string `json:"source" yaml:"source"`
	Operator  string `json:"operator" yaml:"operator"`
	Condition any    `json:"condition" yaml:"condition"`
}

// ActionSet is a named, stored list of actions run against proxied exchanges
type ActionSet struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Enabled     bool      `json:"enabled"`
	Actions     []Action  `json:"actions"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ActionSetInput represents input for creating an action set
type ActionSetInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Enabled     bool     `json:"enabled"`
	Actions     []Action `json:"actions"`
}

// ActionSetUpdate represents input for updating an action set
type ActionSetUpdate struct {
	Name        *string   `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
	Enabled     *bool     `json:"enabled,omitempty"`
	Actions     *[]Action `json:"actions,omitempty"`
}

// ActionResult is the outcome of running one action
type ActionResult struct {
	Index       int    `json:"index"`
	Source      string `json:"source"`
	Action      string `json:"action"`
	Destination string `json:"destination"`
	Executed    bool   `json:"executed"`
	Skipped     bool   `json:"skipped"` // Disabled action
	Error       string `json:"error,omitempty"`
	Duration    int64  `json:"duration"` // Duration in nanoseconds
}
