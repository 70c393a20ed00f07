package models

// Condition represents a predicate gating whether an action executes
type Condition struct {
	Enabled   *bool  `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Source    string `json:"source" yaml:"source"`       // Dotted path, e.g. response.body.data.0.id
	Operator  string `json:"operator" yaml:"operator"`   // equal, not-equal, less-than, ...
	Condition any    `json:"condition" yaml:"condition"` // Literal to compare against
}

// IsEnabled reports whether the condition is enabled. Conditions are enabled
// unless explicitly switched off.
func (c Condition) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// Supported condition operators
const (
	OpEqual            = "equal"
	OpNotEqual         = "not-equal"
	OpLessThan         = "less-than"
	OpLessThanEqual    = "less-than-equal"
	OpGreaterThan      = "greater-than"
	OpGreaterThanEqual = "greater-than-equal"
	OpContains         = "contains"
	OpRegex            = "regex"
)

// ValidOperators returns all valid condition operators
func ValidOperators() []string {
	return []string{
		OpEqual, OpNotEqual, OpLessThan, OpLessThanEqual,
		OpGreaterThan, OpGreaterThanEqual, OpContains, OpRegex,
	}
}

// IsValidOperator reports whether op is one of ValidOperators
func IsValidOperator(op string) bool {
	for _, v := range ValidOperators() {
		if v == op {
			return true
		}
	}
	return false
}
