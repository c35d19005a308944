package ripple_test

import (
	"testing"

	"github.com/ripplegraph/ripple"
	"github.com/stretchr/testify/assert"
)

// should not collect deps while tracking is paused
func TestPauseTracking(t *testing.T) {
	rs := ripple.CreateReactiveSystem(failOnError(t))
	src := ripple.Signal(rs, 0)

	c := ripple.Computed(rs, func(oldValue int) int {
		rs.PauseTracking()
		defer rs.ResetTracking()
		return src.Value()
	})

	assert.Equal(t, 0, c.Value())
	src.SetValue(1)
	assert.Equal(t, 0, c.Value(), "the untracked read left the cache valid")
}

// should restore the previous tracking state LIFO across nesting
func TestTrackingStackNesting(t *testing.T) {
	rs := ripple.CreateReactiveSystem(failOnError(t))
	a := ripple.Signal(rs, 0)
	b := ripple.Signal(rs, 0)
	c := ripple.Signal(rs, 0)

	runs := 0
	_, _ = ripple.Effect(rs, func() error {
		runs++
		a.Value()
		rs.PauseTracking()
		b.Value()
		rs.EnableTracking()
		c.Value()
		rs.ResetTracking()
		rs.ResetTracking()
		return nil
	})
	assert.Equal(t, 1, runs)

	b.SetValue(1)
	assert.Equal(t, 1, runs, "b was read while paused")
	c.SetValue(1)
	assert.Equal(t, 2, runs, "c was read under forced tracking")
	a.SetValue(1)
	assert.Equal(t, 3, runs)
}

// should run cleanups with tracking disabled
func TestCleanupRunsUntracked(t *testing.T) {
	rs := ripple.CreateReactiveSystem(failOnError(t))
	x := ripple.Signal(rs, 0)
	leak := ripple.Signal(rs, 0)

	runs := 0
	_, _ = ripple.Effect(rs, func() error {
		runs++
		rs.OnEffectCleanup(func() {
			leak.Value() // must not become a dependency
		}, false)
		x.Value()
		return nil
	})

	x.SetValue(1)
	assert.Equal(t, 2, runs)

	leak.SetValue(1)
	assert.Equal(t, 2, runs, "a read inside a cleanup creates no edge")
}
