package ripple

// Scope collects the effects (and child scopes) created while it is
// running so they can be stopped in bulk.
type Scope struct {
	rs       *ReactiveSystem
	active   bool
	parent   *Scope
	effects  []*EffectRunner
	scopes   []*Scope
	cleanups []func()
}

// NewScope creates a scope nested under the currently running scope, if
// any; stopping the parent stops it too.
func NewScope(rs *ReactiveSystem) *Scope {
	sc := &Scope{rs: rs, active: true}
	if parent := rs.activeScope; parent != nil && parent.active {
		sc.parent = parent
		parent.scopes = append(parent.scopes, sc)
	}
	return sc
}

// NewDetachedScope creates a scope that does not follow its parent's
// lifecycle; it must be stopped explicitly.
func NewDetachedScope(rs *ReactiveSystem) *Scope {
	return &Scope{rs: rs, active: true}
}

// Run executes fn with this scope collecting newly created effects.
func (sc *Scope) Run(fn func()) {
	if !sc.active {
		sc.rs.warnf("ripple: cannot run on an inactive scope")
		return
	}
	rs := sc.rs
	prev := rs.activeScope
	rs.activeScope = sc
	defer func() { rs.activeScope = prev }()
	fn()
}

// Active reports whether the scope has not been stopped yet.
func (sc *Scope) Active() bool { return sc.active }

// Stop stops every collected effect and child scope and runs the scope
// cleanups. Idempotent.
func (sc *Scope) Stop() {
	if !sc.active {
		return
	}
	sc.active = false
	for _, e := range sc.effects {
		e.Stop()
	}
	sc.effects = nil
	for _, f := range sc.cleanups {
		f()
	}
	sc.cleanups = nil
	for _, child := range sc.scopes {
		child.Stop()
	}
	sc.scopes = nil
}

// OnScopeDispose registers fn on the currently running scope, to be called
// once when that scope stops.
func (rs *ReactiveSystem) OnScopeDispose(fn func(), failSilently bool) {
	if sc := rs.activeScope; sc != nil && sc.active {
		sc.cleanups = append(sc.cleanups, fn)
		return
	}
	if !failSilently {
		rs.warnf("ripple: OnScopeDispose called without an active scope; the callback will never run")
	}
}
