// Package template replaces ${name} placeholders in action definitions with
// variable values and generated built-ins.
package template

import (
	"math"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/prasenjit/go-hooks/internal/compare"
	"github.com/prasenjit/go-hooks/internal/models"
)

// Lookup resolves variable names to values
type Lookup interface {
	Lookup(name string) (any, bool)
}

// LookupFunc adapts a function to the Lookup interface
type LookupFunc func(name string) (any, bool)

// Lookup calls f
func (f LookupFunc) Lookup(name string) (any, bool) {
	return f(name)
}

// Chain returns a Lookup that asks each of lookups in order and returns the
// first hit. Nil entries are skipped.
func Chain(lookups ...Lookup) Lookup {
	return LookupFunc(func(name string) (any, bool) {
		for _, l := range lookups {
			if l == nil {
				continue
			}
			if v, ok := l.Lookup(name); ok {
				return v, true
			}
		}
		return nil, false
	})
}

// placeholderPattern matches placeholders like ${variable}
var placeholderPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// maxRandomString bounds the length accepted by random.string(n)
const maxRandomString = 4096

// Engine processes strings with variable substitution
type Engine struct {
	vars Lookup

	mu  sync.Mutex
	rng *rand.Rand
}

// NewEngine creates a new template engine reading variables from vars. vars
// may be nil, in which case only built-ins resolve.
func NewEngine(vars Lookup) *Engine {
	return &Engine{
		vars: vars,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Process replaces every placeholder in s. Placeholders that do not resolve
// are left as written.
func (e *Engine) Process(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return placeholderPattern.ReplaceAllStringFunc(s, func(match string) string {
		value, ok := e.resolve(strings.TrimSpace(match[2 : len(match)-1]))
		if !ok {
			return match
		}
		return compare.ToString(value)
	})
}

// ProcessValue is Process for literals. A string made of a single
// placeholder is replaced by the variable's value itself, keeping its type.
func (e *Engine) ProcessValue(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	if loc := placeholderPattern.FindStringSubmatchIndex(s); loc != nil && loc[0] == 0 && loc[1] == len(s) {
		if value, ok := e.resolve(strings.TrimSpace(s[loc[2]:loc[3]])); ok {
			return value
		}
		return s
	}
	return e.Process(s)
}

// EvaluateAction returns a with placeholders replaced in its source,
// destination, conditions and iterator. a is not modified.
func (e *Engine) EvaluateAction(a models.Action) models.Action {
	out := a.Copy()
	out.Source = e.Process(out.Source)
	out.Destination = e.Process(out.Destination)
	for i := range out.Conditions {
		out.Conditions[i].Source = e.Process(out.Conditions[i].Source)
		out.Conditions[i].Condition = e.ProcessValue(out.Conditions[i].Condition)
	}
	if out.Iterator != nil {
		out.Iterator.Source = e.Process(out.Iterator.Source)
		out.Iterator.Condition = e.ProcessValue(out.Iterator.Condition)
	}
	return out
}

// resolve looks name up among the built-ins first, then the variables
func (e *Engine) resolve(name string) (any, bool) {
	source, key, _ := strings.Cut(name, ".")
	switch source {
	case "random":
		if v, ok := e.resolveRandom(key); ok {
			return v, true
		}
	case "timestamp":
		if v, ok := resolveTimestamp(key, time.Now()); ok {
			return v, true
		}
	}

	if e.vars == nil {
		return nil, false
	}
	return e.vars.Lookup(name)
}

// resolveRandom resolves random value generators
func (e *Engine) resolveRandom(key string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch {
	case key == "uuid":
		return uuid.New().String(), true
	case key == "int":
		return strconv.Itoa(e.rng.Intn(1000000)), true
	case strings.HasPrefix(key, "int("):
		params := parseParams(key, "int")
		if len(params) != 2 {
			return "", false
		}
		lo, err1 := strconv.Atoi(strings.TrimSpace(params[0]))
		hi, err2 := strconv.Atoi(strings.TrimSpace(params[1]))
		if err1 != nil || err2 != nil || hi < lo {
			return "", false
		}
		// span wraps correctly in uint64 even when hi-lo overflows int
		span := uint64(hi) - uint64(lo)
		if span >= math.MaxInt64 {
			return "", false
		}
		return strconv.FormatInt(int64(lo)+e.rng.Int63n(int64(span)+1), 10), true
	case key == "string":
		return randomString(e.rng, 10), true
	case strings.HasPrefix(key, "string("):
		params := parseParams(key, "string")
		if len(params) != 1 {
			return "", false
		}
		n, err := strconv.Atoi(strings.TrimSpace(params[0]))
		if err != nil || n <= 0 || n > maxRandomString {
			return "", false
		}
		return randomString(e.rng, n), true
	case key == "bool":
		return strconv.FormatBool(e.rng.Intn(2) == 1), true
	}
	return "", false
}

// resolveTimestamp renders now in the format named by key
func resolveTimestamp(key string, now time.Time) (string, bool) {
	switch {
	case key == "" || key == "unix":
		return strconv.FormatInt(now.Unix(), 10), true
	case key == "unixMilli":
		return strconv.FormatInt(now.UnixMilli(), 10), true
	case key == "iso":
		return now.UTC().Format(time.RFC3339), true
	case key == "date":
		return now.Format(time.DateOnly), true
	case strings.HasPrefix(key, "format("):
		params := parseParams(key, "format")
		if len(params) == 1 {
			return now.Format(params[0]), true
		}
	}
	return "", false
}

// parseParams extracts parameters from a call like "func(param1,param2)"
func parseParams(key, funcName string) []string {
	inner, ok := strings.CutPrefix(key, funcName+"(")
	if !ok {
		return nil
	}
	inner, ok = strings.CutSuffix(inner, ")")
	if !ok || inner == "" {
		return nil
	}
	return strings.Split(inner, ",")
}

func randomString(rng *rand.Rand, length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rng.Intn(len(charset))]
	}
	return string(b)
}
