package models

import "time"

// SignalKind identifies the side effect an executed action asks for
type SignalKind string

const (
	// SignalVariableUpdate updates a variable in memory only
	SignalVariableUpdate SignalKind = "variable-update"
	// SignalVariableStore updates a variable and persists it
	SignalVariableStore SignalKind = "variable-store"
)

// Signal is emitted by an executed action. Found is false when the source
// did not resolve, which keeps "no data" apart from a JSON null Value.
type Signal struct {
	Kind        SignalKind `json:"kind"`
	Destination string     `json:"destination"`
	Value       any        `json:"value"`
	Found       bool       `json:"found"`
}

// Variable is a named value maintained by the variable store
type Variable struct {
	Name       string    `json:"name"`
	Value      any       `json:"value"`
	Persistent bool      `json:"persistent"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
