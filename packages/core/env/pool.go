package env

import (
	"encoding/json"
	"fmt"
	"maps"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
)

var variablePattern = regexp.MustCompile(`\{\{\s*([^{}]+?)\s*\}\}`)

// Variables is a point-in-time view of a pool
type Variables map[string]any

// WarnFunc is a function type for handling warnings
type WarnFunc func(format string, args ...any)

// Pool accumulates variables during one chain run. Writes replace earlier
// values of the same name; nothing is ever removed.
type Pool struct {
	mu       sync.RWMutex
	vars     Variables
	warnFunc WarnFunc
}

func NewPool() *Pool {
	return &Pool{
		vars: make(Variables),
	}
}

// SetWarnFunc sets a function to be called for unresolved references
func (p *Pool) SetWarnFunc(fn WarnFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.warnFunc = fn
}

func (p *Pool) warn(format string, args ...any) {
	p.mu.RLock()
	fn := p.warnFunc
	p.mu.RUnlock()
	if fn != nil {
		fn(format, args...)
	}
}

func (p *Pool) Set(name string, value any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.vars[name] = value
}

func (p *Pool) SetAll(vars map[string]any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for k, v := range vars {
		p.vars[k] = v
	}
}

func (p *Pool) Get(name string) (any, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.vars[name]
	return v, ok
}

func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.vars)
}

// Snapshot returns a copy that later writes do not affect
func (p *Pool) Snapshot() Variables {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return maps.Clone(p.vars)
}

// Resolve substitutes {{name}} references from the pool
func (p *Pool) Resolve(input string) string {
	p.mu.RLock()
	vars := p.vars
	out, missing := substitute(input, vars)
	p.mu.RUnlock()

	for _, name := range missing {
		p.warn("unresolved variable: %s", name)
	}
	return out
}

// ResolveAll resolves every value of m into a new map
func (p *Pool) ResolveAll(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	result := make(map[string]string, len(m))
	for k, v := range m {
		result[k] = p.Resolve(v)
	}
	return result
}

// Substitute replaces every {{name}} in input with the text form of vars[name].
// Unknown names are left untouched.
func Substitute(input string, vars Variables) string {
	out, _ := substitute(input, vars)
	return out
}

// Unresolved lists the distinct names in input that vars cannot satisfy
func Unresolved(input string, vars Variables) []string {
	_, missing := substitute(input, vars)
	return missing
}

func substitute(input string, vars Variables) (string, []string) {
	if !strings.Contains(input, "{{") {
		return input, nil
	}

	seen := make(map[string]bool)
	var missing []string
	out := variablePattern.ReplaceAllStringFunc(input, func(match string) string {
		name := variablePattern.FindStringSubmatch(match)[1]
		if val, ok := vars[name]; ok {
			return Stringify(val)
		}
		if !seen[name] {
			seen[name] = true
			missing = append(missing, name)
		}
		return match
	})
	sort.Strings(missing)
	return out, missing
}

// Stringify renders a variable value as template text. Whole floats print
// without an exponent; objects and arrays print as JSON.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case map[string]any, []any:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(data)
	default:
		return fmt.Sprintf("%v", val)
	}
}
