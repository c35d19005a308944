package main

import (
	"flag"
	"log"
	"math/rand"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/ripplegraph/ripple"
)

// Graph-churn harness: hammers the core with shifting dependency sets,
// batched write storms, pause/resume cycles and scope teardown, then
// reports what actually ran. The scope-churn scenario ends each round with
// a quiescence probe: a write after teardown that must run no effect.

type counters struct {
	name      string
	writes    int64
	effectRun int64
	evals     int64
}

func main() {
	iterations := flag.Int64("iterations", 100_000, "writes per scenario")
	seed := flag.Int64("seed", 1, "rng seed")
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))
	rows := []counters{
		shiftingDeps(*iterations, rng),
		batchStorm(*iterations, rng),
		pauseResume(*iterations, rng),
		scopeChurn(*iterations / 100),
	}

	tbl := tablewriter.NewWriter(os.Stdout)
	tbl.SetHeader([]string{"scenario", "writes", "effect runs", "computed evals"})
	for _, r := range rows {
		tbl.Append([]string{
			r.name,
			humanize.Comma(r.writes),
			humanize.Comma(r.effectRun),
			humanize.Comma(r.evals),
		})
	}
	tbl.Render()
}

func newSystem() *ripple.ReactiveSystem {
	return ripple.CreateReactiveSystem(func(from ripple.SignalAware, err error) {
		log.Panic(err)
	})
}

// shiftingDeps flips an effect between two sources and writes to both; only
// gate writes and writes to the currently selected source may run the
// effect.
func shiftingDeps(n int64, rng *rand.Rand) counters {
	c := counters{name: "shifting deps"}
	rs := newSystem()
	gate := ripple.Signal(rs, true)
	a := ripple.Signal(rs, 0)
	b := ripple.Signal(rs, 0)

	if _, err := ripple.Effect(rs, func() error {
		c.effectRun++
		if gate.Value() {
			a.Value()
		} else {
			b.Value()
		}
		return nil
	}); err != nil {
		log.Panic(err)
	}

	for i := int64(0); i < n; i++ {
		c.writes++
		switch rng.Intn(3) {
		case 0:
			gate.SetValue(!gate.Peek())
		case 1:
			a.SetValue(a.Peek() + 1)
		default:
			b.SetValue(b.Peek() + 1)
		}
	}
	return c
}

// batchStorm coalesces bursts of writes through a computed chain; each
// burst may run the effect at most once.
func batchStorm(n int64, rng *rand.Rand) counters {
	c := counters{name: "batch storm"}
	rs := newSystem()
	x := ripple.Signal(rs, 0)
	y := ripple.Signal(rs, 0)
	sum := ripple.Computed(rs, func(oldValue int) int {
		c.evals++
		return x.Value() + y.Value()
	})

	if _, err := ripple.Effect(rs, func() error {
		c.effectRun++
		sum.Value()
		return nil
	}); err != nil {
		log.Panic(err)
	}

	for i := int64(0); i < n; {
		burst := 1 + rng.Intn(16)
		if err := rs.Batch(func() {
			for j := 0; j < burst; j++ {
				c.writes++
				if rng.Intn(2) == 0 {
					x.SetValue(x.Peek() + 1)
				} else {
					y.SetValue(y.Peek() + 1)
				}
			}
		}); err != nil {
			log.Panic(err)
		}
		i += int64(burst)
	}
	return c
}

// pauseResume parks the effect through bursts of writes; each resume may
// replay at most one trigger.
func pauseResume(n int64, rng *rand.Rand) counters {
	c := counters{name: "pause/resume"}
	rs := newSystem()
	s := ripple.Signal(rs, 0)

	e, err := ripple.Effect(rs, func() error {
		c.effectRun++
		s.Value()
		return nil
	})
	if err != nil {
		log.Panic(err)
	}

	for i := int64(0); i < n; {
		e.Pause()
		burst := 1 + rng.Intn(8)
		for j := 0; j < burst; j++ {
			c.writes++
			s.SetValue(s.Peek() + 1)
		}
		i += int64(burst)
		if err := e.Resume(); err != nil {
			log.Panic(err)
		}
	}
	return c
}

// scopeChurn builds and tears down scopes full of effects; a write after
// teardown must run nothing.
func scopeChurn(n int64) counters {
	c := counters{name: "scope churn"}
	rs := newSystem()
	s := ripple.Signal(rs, 0)

	for i := int64(0); i < n; i++ {
		scope := ripple.NewScope(rs)
		scope.Run(func() {
			for j := 0; j < 8; j++ {
				if _, err := ripple.Effect(rs, func() error {
					c.effectRun++
					s.Value()
					return nil
				}); err != nil {
					log.Panic(err)
				}
			}
		})
		c.writes++
		s.SetValue(s.Peek() + 1)
		scope.Stop()

		// Quiescence probe: nobody is left listening.
		before := c.effectRun
		c.writes++
		s.SetValue(s.Peek() + 1)
		if c.effectRun != before {
			log.Panicf("stopped scope still ran effects: %d -> %d", before, c.effectRun)
		}
	}
	return c
}
