package ripple

import (
	"log"

	mapset "github.com/deckarep/golang-set/v2"
)

// OnErrorFunc receives every error returned by an effect function during a
// flush. The first such error per flush is also returned from the
// outermost EndBatch/Batch call.
type OnErrorFunc func(from SignalAware, err error)

// WarnFunc receives debug warnings (lifecycle misuse, writes to readonly
// computeds, unrestored tracking state).
type WarnFunc func(format string, args ...any)

type SystemOption func(*ReactiveSystem)

// WithSSR puts the system in server-render mode: computeds created on it
// skip dirty-elision, so once anything has triggered since their last
// refresh a read re-evaluates the getter without walking their deps. A
// read with no trigger since the last refresh still returns the cache.
func WithSSR() SystemOption {
	return func(rs *ReactiveSystem) { rs.ssr = true }
}

// WithWarnFunc overrides the debug warning sink (default log.Printf).
func WithWarnFunc(fn WarnFunc) SystemOption {
	return func(rs *ReactiveSystem) { rs.warn = fn }
}

// ReactiveSystem holds all shared mutable state of one reactivity graph:
// the active subscriber, the tracking switch and its stack, the batch
// scheduler and the target registry. It assumes a single mutator at a
// time; no locks, no atomics.
type ReactiveSystem struct {
	globalVersion int

	activeSub   subscriber
	activeScope *Scope
	shouldTrack bool
	trackStack  []bool

	batchDepth      int
	batchedSub      subscriber
	batchedComputed subscriber

	pausedEffects mapset.Set[*EffectRunner]

	targetMap map[any]*keyDeps

	onError OnErrorFunc
	warn    WarnFunc
	ssr     bool
}

func CreateReactiveSystem(onError OnErrorFunc, opts ...SystemOption) *ReactiveSystem {
	rs := &ReactiveSystem{
		shouldTrack:   true,
		pausedEffects: mapset.NewSet[*EffectRunner](),
		targetMap:     map[any]*keyDeps{},
		onError:       onError,
		warn:          log.Printf,
	}
	for _, o := range opts {
		o(rs)
	}
	return rs
}

func (rs *ReactiveSystem) warnf(format string, args ...any) {
	if rs.warn != nil {
		rs.warn(format, args...)
	}
}

// GlobalVersion returns the monotonic counter bumped on every trigger.
func (rs *ReactiveSystem) GlobalVersion() int { return rs.globalVersion }

// PauseTracking disables dependency collection until the matching
// ResetTracking.
func (rs *ReactiveSystem) PauseTracking() {
	rs.trackStack = append(rs.trackStack, rs.shouldTrack)
	rs.shouldTrack = false
}

// EnableTracking force-enables dependency collection until the matching
// ResetTracking.
func (rs *ReactiveSystem) EnableTracking() {
	rs.trackStack = append(rs.trackStack, rs.shouldTrack)
	rs.shouldTrack = true
}

// ResetTracking pops the last Pause/EnableTracking. With an empty stack it
// restores the default (enabled).
func (rs *ReactiveSystem) ResetTracking() {
	n := len(rs.trackStack)
	if n == 0 {
		rs.shouldTrack = true
		return
	}
	rs.shouldTrack = rs.trackStack[n-1]
	rs.trackStack = rs.trackStack[:n-1]
}

// StartBatch defers effect flushes until the matching EndBatch.
func (rs *ReactiveSystem) StartBatch() {
	rs.batchDepth++
}

// batch enqueues a notified subscriber. Pushing onto the head of the list
// paired with deps notifying tail-to-head makes the flush run effects in
// registration order. The fNotified guard keeps a subscriber in the list
// at most once per batch.
func (rs *ReactiveSystem) batch(sub subscriber, isComputed bool) {
	sl := sub.links()
	sl.flags |= fNotified
	if isComputed {
		sl.next = rs.batchedComputed
		rs.batchedComputed = sub
		return
	}
	sl.next = rs.batchedSub
	rs.batchedSub = sub
}

// EndBatch closes one batch level. When the outermost level closes it
// flushes: batched computeds are only re-armed (cleared of fNotified, left
// dirty for their next lazy read), then batched effects are triggered in
// order. The first effect error is returned; later effects still flush.
func (rs *ReactiveSystem) EndBatch() error {
	rs.batchDepth--
	if rs.batchDepth > 0 {
		return nil
	}

	if rs.batchedComputed != nil {
		e := rs.batchedComputed
		rs.batchedComputed = nil
		for e != nil {
			sl := e.links()
			next := sl.next
			sl.next = nil
			sl.flags &^= fNotified
			e = next
		}
	}

	var firstErr error
	// The current list is detached before invoking anything: effect bodies
	// may trigger again. The batch depth is already zero here, so such a
	// write opens and closes its own batch and flushes its arrivals itself;
	// the outer loop picks up anything still queued after an effect returns.
	for rs.batchedSub != nil {
		e := rs.batchedSub
		rs.batchedSub = nil
		for e != nil {
			sl := e.links()
			next := sl.next
			sl.next = nil
			sl.flags &^= fNotified
			if sl.flags&fActive != 0 {
				eff := mustEffect(e)
				if err := eff.trigger(); err != nil {
					if rs.onError != nil {
						rs.onError(eff, err)
					}
					if firstErr == nil {
						firstErr = err
					}
				}
			}
			e = next
		}
	}
	return firstErr
}

// endBatchInternal closes batches opened by the library itself, where the
// flush errors were already routed to the OnErrorFunc.
func (rs *ReactiveSystem) endBatchInternal() {
	_ = rs.EndBatch()
}

// Batch runs fn inside one batch and returns the first flush error.
func (rs *ReactiveSystem) Batch(fn func()) (err error) {
	rs.StartBatch()
	defer func() {
		if e := rs.EndBatch(); err == nil {
			err = e
		}
	}()
	fn()
	return nil
}

// OnEffectCleanup registers fn on the currently running effect. It is
// invoked before the effect's next run and on Stop, with tracking disabled
// and no active subscriber.
func (rs *ReactiveSystem) OnEffectCleanup(fn func(), failSilently bool) {
	if e, ok := rs.activeSub.(*EffectRunner); ok {
		e.cleanup = fn
		return
	}
	if !failSilently {
		rs.warnf("ripple: OnEffectCleanup called without an active effect; the callback will never run")
	}
}

func mustEffect(s subscriber) *EffectRunner {
	e, ok := s.(*EffectRunner)
	if !ok {
		panic("ripple: batched subscriber is not an effect")
	}
	return e
}
