// Package compare implements the condition operators shared by the condition
// evaluator and iterator-aware extraction.
//
// Operands are the values produced by body extraction: string, float64, bool,
// nil (JSON null), []any and map[string]any, plus the Missing marker for a
// path that resolved to nothing. Literals coming from configuration may also
// be any Go integer type.
package compare

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/prasenjit/go-hooks/internal/models"
)

type missing struct{}

// Missing marks an operand that did not resolve to any value. It never equals
// a defined value and every ordering involving it is false.
var Missing any = missing{}

// IsMissing reports whether v is the Missing marker
func IsMissing(v any) bool {
	_, ok := v.(missing)
	return ok
}

// Check applies operator to value and literal. Unknown operators are never
// satisfied.
func Check(value any, operator string, literal any) bool {
	switch operator {
	case models.OpEqual:
		return Equal(value, literal)
	case models.OpNotEqual:
		return NotEqual(value, literal)
	case models.OpLessThan:
		return LessThan(value, literal)
	case models.OpLessThanEqual:
		return LessThanEqual(value, literal)
	case models.OpGreaterThan:
		return GreaterThan(value, literal)
	case models.OpGreaterThanEqual:
		return GreaterThanEqual(value, literal)
	case models.OpContains:
		return Contains(value, literal)
	case models.OpRegex:
		return Regex(value, literal)
	default:
		return false
	}
}

// Equal reports loose equality. "true"/"false" strings are read as booleans
// and numeric-looking operands are compared as numbers.
func Equal(a, b any) bool {
	if IsMissing(a) || IsMissing(b) {
		return IsMissing(a) && IsMissing(b)
	}

	a, b = normalize(a), normalize(b)
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return as == bs
		}
	}
	if ab, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			return ab == bb
		}
	}

	an, aok := toNumber(a)
	bn, bok := toNumber(b)
	if aok && bok {
		return an == bn
	}

	return reflect.DeepEqual(a, b)
}

// NotEqual is the negation of Equal
func NotEqual(a, b any) bool {
	return !Equal(a, b)
}

// LessThan reports a < b after numeric coercion
func LessThan(a, b any) bool {
	c, ok := order(a, b)
	return ok && c < 0
}

// LessThanEqual reports a <= b after numeric coercion
func LessThanEqual(a, b any) bool {
	c, ok := order(a, b)
	return ok && c <= 0
}

// GreaterThan reports a > b after numeric coercion
func GreaterThan(a, b any) bool {
	c, ok := order(a, b)
	return ok && c > 0
}

// GreaterThanEqual reports a >= b after numeric coercion
func GreaterThanEqual(a, b any) bool {
	c, ok := order(a, b)
	return ok && c >= 0
}

// order compares two operands numerically. The second result is false when
// either operand is missing or not numeric, in which case no ordering holds.
func order(a, b any) (int, bool) {
	if IsMissing(a) || IsMissing(b) {
		return 0, false
	}

	an, aok := toNumber(normalize(a))
	bn, bok := toNumber(normalize(b))
	if !aok || !bok {
		return 0, false
	}

	switch {
	case an < bn:
		return -1, true
	case an > bn:
		return 1, true
	}
	return 0, true
}

// Contains tests needle against haystack: substring for strings, loose
// membership for slices and string-coerced key membership for maps. Any other
// haystack never contains anything.
func Contains(haystack, needle any) bool {
	if IsMissing(haystack) || IsMissing(needle) || haystack == nil {
		return false
	}

	if s, ok := haystack.(string); ok {
		if needle == nil {
			return false
		}
		return strings.Contains(s, ToString(needle))
	}

	rv := reflect.ValueOf(haystack)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if Equal(rv.Index(i).Interface(), needle) {
				return true
			}
		}
	case reflect.Map:
		if needle == nil {
			return false
		}
		want := ToString(needle)
		iter := rv.MapRange()
		for iter.Next() {
			key := iter.Key().Interface()
			if ToString(key) == want || reflect.DeepEqual(key, needle) {
				return true
			}
		}
	}

	return false
}

// Regex compiles pattern as a multiline, case sensitive expression and tests
// it against the string form of value. Invalid patterns never match.
func Regex(value, pattern any) bool {
	if IsMissing(value) || IsMissing(pattern) || pattern == nil {
		return false
	}

	re, err := regexp.Compile("(?m)" + ToString(pattern))
	if err != nil {
		return false
	}

	return re.MatchString(ToString(value))
}

// ToString renders an operand the way it would appear in text. Numbers use
// the shortest representation, null is "null" and structured values are
// rendered as JSON.
func ToString(v any) string {
	switch val := v.(type) {
	case missing:
		return ""
	case nil:
		return "null"
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return formatFloat(val)
	case float32:
		return formatFloat(float64(val))
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case json.Number:
		return val.String()
	case fmt.Stringer:
		return val.String()
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

func formatFloat(f float64) string {
	if math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// normalize turns textual booleans into booleans
func normalize(v any) any {
	if s, ok := v.(string); ok {
		switch s {
		case "true":
			return true
		case "false":
			return false
		}
	}
	return v
}

// toNumber coerces numbers, numeric strings and booleans to float64
func toNumber(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int8:
		return float64(val), true
	case int16:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint8:
		return float64(val), true
	case uint16:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
