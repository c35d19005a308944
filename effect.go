package ripple

// ErrFn is the shape of an effect body.
type ErrFn func() error

type EffectOption func(*EffectRunner)

// WithScheduler replaces the default run-when-dirty behavior: when the
// effect would re-run, the scheduler is invoked instead and decides when
// (and whether) to call Run.
func WithScheduler(fn func()) EffectOption {
	return func(e *EffectRunner) { e.scheduler = fn }
}

// WithAllowRecurse lets an effect trigger itself: a notification arriving
// while the effect is running is queued instead of dropped.
func WithAllowRecurse() EffectOption {
	return func(e *EffectRunner) { e.flags |= fAllowRecurse }
}

// OnStop registers a hook invoked once when the effect is stopped.
func OnStop(fn func()) EffectOption {
	return func(e *EffectRunner) { e.onStop = fn }
}

// OnTrack registers a debug hook fired on every tracked read the effect
// makes, including repeated reads of a dep it already holds an edge to.
func OnTrack(fn func(DebuggerEvent)) EffectOption {
	return func(e *EffectRunner) { e.onTrack = fn }
}

// OnTrigger registers a debug hook fired whenever one of the effect's deps
// triggers.
func OnTrigger(fn func(DebuggerEvent)) EffectOption {
	return func(e *EffectRunner) { e.onTrigger = fn }
}

// EffectRunner re-runs its function whenever a dependency read during the
// previous run changes.
type EffectRunner struct {
	subLinks
	rs *ReactiveSystem
	fn ErrFn

	scheduler func()
	cleanup   func()
	onStop    func()
	onTrack   func(DebuggerEvent)
	onTrigger func(DebuggerEvent)
}

func (e *EffectRunner) isSignalAware() {}

// Effect creates a runner for fn and runs it once immediately. If the
// first run fails the runner is stopped and the error returned.
func Effect(rs *ReactiveSystem, fn ErrFn, opts ...EffectOption) (*EffectRunner, error) {
	e := &EffectRunner{rs: rs, fn: fn}
	e.flags |= fActive | fTracking
	for _, o := range opts {
		o(e)
	}
	if sc := rs.activeScope; sc != nil && sc.active {
		sc.effects = append(sc.effects, e)
	}
	if err := e.Run(); err != nil {
		e.Stop()
		return nil, err
	}
	return e, nil
}

// Run executes the effect body under tracking. Each existing edge is armed
// first; edges not read this run are dropped afterwards, in both lists.
// The previous active subscriber and tracking switch are restored LIFO so
// effects can run inside effects.
func (e *EffectRunner) Run() error {
	if e.flags&fActive == 0 {
		// Stopped: run the body once without any tracking bookkeeping.
		return e.fn()
	}
	e.flags |= fRunning
	e.manualDirty = false
	cleanupEffect(e)
	prepareDeps(&e.subLinks)

	rs := e.rs
	prevSub, prevTrack := rs.activeSub, rs.shouldTrack
	rs.activeSub, rs.shouldTrack = e, true
	defer func() {
		if rs.activeSub != subscriber(e) {
			rs.warnf("ripple: active subscriber was not restored after an effect run; this is a bug in ripple or a misuse of tracking pause/reset")
		}
		cleanupDeps(&e.subLinks)
		rs.activeSub, rs.shouldTrack = prevSub, prevTrack
		e.flags &^= fRunning
	}()

	return e.fn()
}

// notify enqueues the effect into the current batch. Notifications landing
// while the effect itself is running are dropped unless recursion was
// allowed. Effects never report as dirtied computeds.
func (e *EffectRunner) notify() bool {
	if e.flags&fRunning != 0 && e.flags&fAllowRecurse == 0 {
		return false
	}
	if e.flags&fNotified == 0 {
		e.rs.batch(e, false)
	}
	return false
}

// trigger is the flush-side entry: paused effects are parked, a custom
// scheduler takes over if present, otherwise the effect runs if dirty.
func (e *EffectRunner) trigger() error {
	if e.flags&fPaused != 0 {
		e.rs.pausedEffects.Add(e)
		return nil
	}
	if e.scheduler != nil {
		e.scheduler()
		return nil
	}
	return e.RunIfDirty()
}

// RunIfDirty re-runs the effect only when one of its deps moved.
func (e *EffectRunner) RunIfDirty() error {
	if !isDirty(&e.subLinks) {
		return nil
	}
	return e.Run()
}

// Dirty reports whether the effect would re-run right now.
func (e *EffectRunner) Dirty() bool {
	return isDirty(&e.subLinks)
}

// MarkDirty forces the next RunIfDirty to run regardless of dep versions.
func (e *EffectRunner) MarkDirty() {
	e.manualDirty = true
}

// Pause parks the effect: triggers are remembered, not run.
func (e *EffectRunner) Pause() {
	e.flags |= fPaused
}

// Resume un-parks the effect and replays at most one pending trigger.
func (e *EffectRunner) Resume() error {
	if e.flags&fPaused == 0 {
		return nil
	}
	e.flags &^= fPaused
	if e.rs.pausedEffects.Contains(e) {
		e.rs.pausedEffects.Remove(e)
		return e.trigger()
	}
	return nil
}

// Stop releases every dependency edge, runs the registered cleanup and the
// onStop hook, and deactivates the runner. Idempotent.
func (e *EffectRunner) Stop() {
	if e.flags&fActive == 0 {
		return
	}
	for l := e.deps; l != nil; l = l.nextDep {
		removeSub(l, false)
	}
	e.deps, e.depsTail = nil, nil
	cleanupEffect(e)
	if e.onStop != nil {
		e.onStop()
	}
	e.flags &^= fActive
}

// Stop is the free-function form for symmetry with Effect.
func Stop(e *EffectRunner) {
	e.Stop()
}

// cleanupEffect runs and clears the user cleanup with no active subscriber
// and tracking disabled, so the cleanup body cannot grow the dep list.
func cleanupEffect(e *EffectRunner) {
	fn := e.cleanup
	e.cleanup = nil
	if fn == nil {
		return
	}
	rs := e.rs
	prevSub := rs.activeSub
	rs.activeSub = nil
	rs.PauseTracking()
	defer func() {
		rs.activeSub = prevSub
		rs.ResetTracking()
	}()
	fn()
}
