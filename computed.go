package ripple

// computedBase is the non-generic half of a computed: the subscriber
// header, the dep other subscribers track when they read the computed, and
// the refresh machinery. The typed half plugs in through update, a closure
// over the generic value slot.
type computedBase struct {
	subLinks
	rs  *ReactiveSystem
	dep dep

	// globalVersion is the system version this computed was last refreshed
	// at: if nothing anywhere has triggered since, the cached value stands.
	globalVersion int

	ssr bool
	ref SignalAware

	// update evaluates the getter, stores the value if it changed and
	// reports whether it did.
	update func() bool
}

// notify marks the computed dirty and enqueues it once per batch. The true
// return tells dep.notify to forward the dirtiness into the computed's own
// subscribers. Recomputation stays lazy: nothing is evaluated here.
func (c *computedBase) notify() bool {
	c.flags |= fDirty
	if c.flags&fNotified == 0 && c.rs.activeSub != subscriber(c) {
		c.rs.batch(c, true)
		return true
	}
	return false
}

// refresh re-evaluates the computed if it may be stale. Cheap exits first:
// a tracking computed not dirtied since its last refresh, then the global version (no
// trigger anywhere since last refresh), then the per-edge dirty walk. The
// dep version only moves when the value actually changed, so downstream
// version checks stay precise. A panicking getter still bumps the version
// so readers re-attempt after the failure.
func (c *computedBase) refresh() {
	if c.flags&fTracking != 0 && c.flags&fDirty == 0 {
		return
	}
	c.flags &^= fDirty

	rs := c.rs
	if c.globalVersion == rs.globalVersion {
		return
	}
	c.globalVersion = rs.globalVersion

	if !c.ssr && c.flags&fEvaluated != 0 &&
		((c.deps == nil && !c.manualDirty) || !isDirty(&c.subLinks)) {
		return
	}
	c.manualDirty = false

	c.flags |= fRunning
	prevSub, prevTrack := rs.activeSub, rs.shouldTrack
	rs.activeSub, rs.shouldTrack = c, true
	prepareDeps(&c.subLinks)
	completed := false
	defer func() {
		rs.activeSub, rs.shouldTrack = prevSub, prevTrack
		cleanupDeps(&c.subLinks)
		c.flags &^= fRunning
		if !completed {
			c.dep.version++
		}
	}()

	if c.update() {
		c.flags |= fEvaluated
		c.dep.version++
	}
	completed = true
}

// ReadonlySignal is a lazy cached derivation. It is a subscriber of
// whatever its getter reads and, through its own dep, a source for
// whoever reads it.
type ReadonlySignal[T comparable] struct {
	computedBase
	getter func(oldValue T) T
	setter func(T)
	value  T
}

func (s *ReadonlySignal[T]) isSignalAware() {}

// Computed creates a lazy cached derivation of getter. The getter receives
// the previously cached value (zero on first evaluation) and is only run
// when the value is read and may be stale.
func Computed[T comparable](rs *ReactiveSystem, getter func(oldValue T) T) *ReadonlySignal[T] {
	s := &ReadonlySignal[T]{getter: getter}
	s.rs = rs
	s.flags = fDirty
	s.globalVersion = rs.globalVersion - 1
	s.ssr = rs.ssr
	s.dep = dep{rs: rs, computed: &s.computedBase}
	s.ref = s
	s.update = s.runGetter
	return s
}

// WritableComputed additionally accepts writes, delegating them to setter.
func WritableComputed[T comparable](rs *ReactiveSystem, getter func(oldValue T) T, setter func(T)) *ReadonlySignal[T] {
	s := Computed(rs, getter)
	s.setter = setter
	return s
}

func (s *ReadonlySignal[T]) runGetter() bool {
	old := s.value
	v := s.getter(old)
	if s.dep.version == 0 || v != old {
		s.value = v
		return true
	}
	return false
}

// Value links the reader to this computed, refreshes if stale, and returns
// the cached value. Reads are glitch-free: a read in any callback always
// reflects every trigger that already happened.
func (s *ReadonlySignal[T]) Value() T {
	l := s.dep.track(s.ref, TrackOpGet, nil)
	s.refresh()
	if l != nil {
		l.version = s.dep.version
	}
	return s.value
}

// SetValue delegates to the setter; without one the computed is readonly
// and the write is dropped with a debug warning.
func (s *ReadonlySignal[T]) SetValue(v T) {
	if s.setter != nil {
		s.setter(v)
		return
	}
	s.rs.warnf("ripple: write to a readonly computed was ignored")
}

// Refresh synchronously brings the cached value up to date. Exposed for
// integrations that read the value outside tracking and need it current.
func (s *ReadonlySignal[T]) Refresh() {
	s.refresh()
}

// MarkDirty forces the next read to re-check the dependency chain even if
// the cached value looks current.
func (s *ReadonlySignal[T]) MarkDirty() {
	s.manualDirty = true
	s.flags |= fDirty
	s.globalVersion = s.rs.globalVersion - 1
}
