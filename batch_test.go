package ripple_test

import (
	"errors"
	"testing"

	"github.com/ripplegraph/ripple"
	"github.com/stretchr/testify/assert"
)

// should coalesce several writes inside a batch into one effect run
func TestBatchCoalesces(t *testing.T) {
	rs := ripple.CreateReactiveSystem(failOnError(t))
	x := ripple.Signal(rs, 0)
	y := ripple.Signal(rs, 0)

	runs := 0
	sum := 0
	_, _ = ripple.Effect(rs, func() error {
		runs++
		sum = x.Value() + y.Value()
		return nil
	})
	assert.Equal(t, 1, runs)

	rs.StartBatch()
	x.SetValue(1)
	y.SetValue(1)
	assert.Equal(t, 1, runs, "nothing flushes while the batch is open")
	assert.NoError(t, rs.EndBatch())

	assert.Equal(t, 2, runs)
	assert.Equal(t, 2, sum)
}

// should flush only when the outermost batch closes
func TestBatchNestingIsFlat(t *testing.T) {
	rs := ripple.CreateReactiveSystem(failOnError(t))
	x := ripple.Signal(rs, 0)

	runs := 0
	_, _ = ripple.Effect(rs, func() error {
		runs++
		x.Value()
		return nil
	})

	rs.StartBatch()
	rs.StartBatch()
	x.SetValue(1)
	assert.NoError(t, rs.EndBatch())
	assert.Equal(t, 1, runs, "the inner EndBatch must not flush")
	assert.NoError(t, rs.EndBatch())
	assert.Equal(t, 2, runs)
}

// should run batched effects in registration order
func TestBatchFlushOrder(t *testing.T) {
	rs := ripple.CreateReactiveSystem(failOnError(t))
	x := ripple.Signal(rs, 0)

	var order []string
	_, _ = ripple.Effect(rs, func() error {
		x.Value()
		order = append(order, "first")
		return nil
	})
	_, _ = ripple.Effect(rs, func() error {
		x.Value()
		order = append(order, "second")
		return nil
	})

	order = order[:0]
	assert.NoError(t, rs.Batch(func() {
		x.SetValue(1)
	}))
	assert.Equal(t, []string{"first", "second"}, order)
}

// should retain the first error, keep flushing, and return it from EndBatch
func TestBatchFirstErrorWins(t *testing.T) {
	var reported []error
	rs := ripple.CreateReactiveSystem(func(from ripple.SignalAware, err error) {
		reported = append(reported, err)
	})
	x := ripple.Signal(rs, 0)

	boom := errors.New("boom")
	failNow := false
	_, _ = ripple.Effect(rs, func() error {
		x.Value()
		if failNow {
			return boom
		}
		return nil
	})

	e2Runs := 0
	e2Seen := 0
	_, _ = ripple.Effect(rs, func() error {
		e2Runs++
		e2Seen = x.Value()
		return nil
	})
	e2Runs = 0
	failNow = true

	err := rs.Batch(func() {
		x.SetValue(42)
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, e2Runs, "the second effect still flushed")
	assert.Equal(t, 42, e2Seen)
	assert.Equal(t, []error{boom}, reported)
}

// should process effects enqueued by other effects during the flush
func TestBatchFlushPicksUpNewArrivals(t *testing.T) {
	rs := ripple.CreateReactiveSystem(failOnError(t))
	x := ripple.Signal(rs, 0)
	y := ripple.Signal(rs, 0)

	_, _ = ripple.Effect(rs, func() error {
		y.SetValue(x.Value())
		return nil
	})

	ySeen := 0
	_, _ = ripple.Effect(rs, func() error {
		ySeen = y.Value()
		return nil
	})

	assert.NoError(t, rs.Batch(func() {
		x.SetValue(5)
	}))
	assert.Equal(t, 5, ySeen)
}

// should leave nothing pending once all batches are closed (quiescence)
func TestBatchQuiescence(t *testing.T) {
	rs := ripple.CreateReactiveSystem(failOnError(t))
	x := ripple.Signal(rs, 0)

	runs := 0
	_, _ = ripple.Effect(rs, func() error {
		runs++
		x.Value()
		return nil
	})

	assert.NoError(t, rs.Batch(func() {
		x.SetValue(1)
		x.SetValue(2)
	}))
	after := runs

	// A write that changes nothing must not revive any queued work.
	x.SetValue(2)
	assert.Equal(t, after, runs)
}

// should not recompute batched computeds eagerly at flush time
func TestBatchLeavesComputedsLazy(t *testing.T) {
	rs := ripple.CreateReactiveSystem(failOnError(t))
	a := ripple.Signal(rs, 1)

	evals := 0
	c := ripple.Computed(rs, func(oldValue int) int {
		evals++
		return a.Value() * 2
	})

	// Observe c through a scheduler effect so the flush itself never pulls
	// the computed's value.
	_, _ = ripple.Effect(rs, func() error {
		c.Value()
		return nil
	}, ripple.WithScheduler(func() {}))
	assert.Equal(t, 1, evals)

	assert.NoError(t, rs.Batch(func() {
		a.SetValue(2)
	}))
	assert.Equal(t, 1, evals, "the flush only re-arms computeds")
	assert.Equal(t, 4, c.Value())
	assert.Equal(t, 2, evals)
}
