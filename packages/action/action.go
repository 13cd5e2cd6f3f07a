package action

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Kind identifies which backend operation an action maps to
type Kind string

const (
	KindTypeText      Kind = "type-text"
	KindWaitVisible   Kind = "wait-visible"
	KindWaitClickable Kind = "wait-clickable"
	KindAssertVisible Kind = "assert-visible"
	KindAssertText    Kind = "assert-text"
	KindTap           Kind = "tap"
	KindSwipe         Kind = "swipe"
	KindDelay         Kind = "delay"
)

const (
	// DefaultWaitTimeout applies to wait actions without an explicit timeout
	DefaultWaitTimeout = 10 * time.Second
	// DefaultDelay applies to delay actions without an explicit duration
	DefaultDelay = 1000 * time.Millisecond
)

// Kinds lists every known action kind
var Kinds = []Kind{
	KindTypeText,
	KindWaitVisible,
	KindWaitClickable,
	KindAssertVisible,
	KindAssertText,
	KindTap,
	KindSwipe,
	KindDelay,
}

// Valid reports whether k is a known action kind
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Element is the target-element descriptor. Its contents are passed through
// to the backend untouched.
type Element map[string]any

// Point is a screen coordinate
type Point struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

type Action struct {
	ID           string  `json:"id,omitempty" yaml:"id,omitempty"`
	Kind         Kind    `json:"type" yaml:"type"`
	Description  string  `json:"description,omitempty" yaml:"description,omitempty"`
	Element      Element `json:"element,omitempty" yaml:"element,omitempty"`
	Text         string  `json:"text,omitempty" yaml:"text,omitempty"`
	Point        *Point  `json:"point,omitempty" yaml:"point,omitempty"`
	End          *Point  `json:"end,omitempty" yaml:"end,omitempty"`
	DurationMs   int     `json:"durationMs,omitempty" yaml:"durationMs,omitempty"`
	ExpectedText string  `json:"expectedText,omitempty" yaml:"expectedText,omitempty"`
	TimeoutMs    int     `json:"timeoutMs,omitempty" yaml:"timeoutMs,omitempty"`
	Enabled      *bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	RetryCount   int     `json:"retryCount,omitempty" yaml:"retryCount,omitempty"`
	RetryDelayMs int     `json:"retryDelayMs,omitempty" yaml:"retryDelayMs,omitempty"`
}

// IsEnabled returns the enabled flag, defaulting to true
func (a *Action) IsEnabled() bool {
	if a.Enabled == nil {
		return true
	}
	return *a.Enabled
}

// MaxAttempts is RetryCount+1, never less than one
func (a *Action) MaxAttempts() int {
	if a.RetryCount < 0 {
		return 1
	}
	return a.RetryCount + 1
}

// RetryDelay returns the fixed pause between failed attempts
func (a *Action) RetryDelay() time.Duration {
	if a.RetryDelayMs < 0 {
		return 0
	}
	return time.Duration(a.RetryDelayMs) * time.Millisecond
}

// WaitTimeout returns the wait/assert timeout, falling back to DefaultWaitTimeout
func (a *Action) WaitTimeout() time.Duration {
	if a.TimeoutMs > 0 {
		return time.Duration(a.TimeoutMs) * time.Millisecond
	}
	return DefaultWaitTimeout
}

// Delay returns the pause for delay actions, falling back to DefaultDelay
func (a *Action) Delay() time.Duration {
	if a.DurationMs > 0 {
		return time.Duration(a.DurationMs) * time.Millisecond
	}
	return DefaultDelay
}

// Describe renders a short human-readable summary used in run logs
func (a *Action) Describe() string {
	if a.Description != "" {
		return a.Description
	}

	target := a.Element.String()
	switch a.Kind {
	case KindTypeText:
		return fmt.Sprintf("type %q into %s", a.Text, target)
	case KindWaitVisible:
		return fmt.Sprintf("wait for %s to be visible", target)
	case KindWaitClickable:
		return fmt.Sprintf("wait for %s to be clickable", target)
	case KindAssertVisible:
		return fmt.Sprintf("assert %s is visible", target)
	case KindAssertText:
		return fmt.Sprintf("assert %s has text %q", target, a.ExpectedText)
	case KindTap:
		if len(a.Element) == 0 && a.Point != nil {
			return fmt.Sprintf("tap at (%d,%d)", a.Point.X, a.Point.Y)
		}
		return fmt.Sprintf("tap %s", target)
	case KindSwipe:
		if a.Point != nil && a.End != nil {
			return fmt.Sprintf("swipe from (%d,%d) to (%d,%d)", a.Point.X, a.Point.Y, a.End.X, a.End.Y)
		}
		return fmt.Sprintf("swipe on %s", target)
	case KindDelay:
		return fmt.Sprintf("delay %s", a.Delay())
	default:
		return fmt.Sprintf("%s %s", a.Kind, target)
	}
}

// String renders the element using its most descriptive key
func (e Element) String() string {
	if len(e) == 0 {
		return "screen"
	}
	for _, key := range []string{"selector", "id", "xpath", "text", "accessibilityId"} {
		if v, ok := e[key]; ok {
			return fmt.Sprintf("%s=%v", key, v)
		}
	}

	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, e[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// LogEntry is one timestamped line of a run log
type LogEntry struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

func (l LogEntry) String() string {
	return fmt.Sprintf("[%s] %s", l.Time.Format("15:04:05.000"), l.Message)
}

// BoolPtr returns a pointer to b
func BoolPtr(b bool) *bool {
	return &b
}
