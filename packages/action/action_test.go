package action

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAction_MaxAttempts(t *testing.T) {
	tests := []struct {
		name       string
		retryCount int
		expected   int
	}{
		{"no retries", 0, 1},
		{"two retries", 2, 3},
		{"negative clamps to one", -4, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Action{Kind: KindTap, RetryCount: tt.retryCount}
			assert.Equal(t, tt.expected, a.MaxAttempts())
		})
	}
}

func TestAction_Defaults(t *testing.T) {
	a := &Action{Kind: KindWaitVisible}
	assert.True(t, a.IsEnabled())
	assert.Equal(t, DefaultWaitTimeout, a.WaitTimeout())
	assert.Equal(t, DefaultDelay, a.Delay())
	assert.Equal(t, time.Duration(0), a.RetryDelay())

	a.Enabled = BoolPtr(false)
	a.TimeoutMs = 250
	a.DurationMs = 40
	a.RetryDelayMs = 15
	assert.False(t, a.IsEnabled())
	assert.Equal(t, 250*time.Millisecond, a.WaitTimeout())
	assert.Equal(t, 40*time.Millisecond, a.Delay())
	assert.Equal(t, 15*time.Millisecond, a.RetryDelay())
}

func TestKind_Valid(t *testing.T) {
	for _, k := range Kinds {
		assert.True(t, k.Valid(), string(k))
	}
	assert.False(t, Kind("double-tap").Valid())
	assert.False(t, Kind("").Valid())
}

func TestAction_Describe(t *testing.T) {
	t.Run("explicit description wins", func(t *testing.T) {
		a := &Action{Kind: KindTap, Description: "open menu"}
		assert.Equal(t, "open menu", a.Describe())
	})

	t.Run("type text", func(t *testing.T) {
		a := &Action{Kind: KindTypeText, Text: "hello", Element: Element{"selector": "#name"}}
		assert.Equal(t, `type "hello" into selector=#name`, a.Describe())
	})

	t.Run("tap coordinates", func(t *testing.T) {
		a := &Action{Kind: KindTap, Point: &Point{X: 10, Y: 20}}
		assert.Equal(t, "tap at (10,20)", a.Describe())
	})

	t.Run("swipe", func(t *testing.T) {
		a := &Action{Kind: KindSwipe, Point: &Point{X: 1, Y: 2}, End: &Point{X: 3, Y: 4}}
		assert.Equal(t, "swipe from (1,2) to (3,4)", a.Describe())
	})

	t.Run("delay", func(t *testing.T) {
		a := &Action{Kind: KindDelay, DurationMs: 500}
		assert.Equal(t, "delay 500ms", a.Describe())
	})
}

func TestElement_String(t *testing.T) {
	assert.Equal(t, "screen", Element(nil).String())
	assert.Equal(t, "xpath=//button", Element{"xpath": "//button"}.String())
	assert.Equal(t, "{class=btn, index=2}", Element{"index": 2, "class": "btn"}.String())
}
