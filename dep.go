package ripple

// dep is a single reactive source. It owns the tail of its subscriber list
// (iteration is tail to head; subsHead exists to fire trigger hooks in
// registration order) and a version counter bumped on every trigger.
type dep struct {
	rs      *ReactiveSystem
	version int

	subs     *link // tail
	subsHead *link

	// activeLink is the edge owned by the currently running subscriber, if
	// it has one to this dep. Lets track recognize an existing edge without
	// walking any list.
	activeLink *link

	subCount int

	// owner/key locate this dep inside the registry for O(1) removal once
	// subCount returns to zero. Both are nil for computed-owned deps.
	owner *keyDeps
	key   any

	// computed is set when this dep belongs to a computed: reading the
	// computed reads this dep.
	computed *computedBase
}

// track ensures an edge between this dep and the active subscriber and
// returns it. No-op when tracking is off, nothing is running, or the active
// subscriber is this dep's own computed (a computed must not read itself).
func (d *dep) track(target any, op TrackOpType, key any) *link {
	rs := d.rs
	active := rs.activeSub
	if active == nil || !rs.shouldTrack {
		return nil
	}
	if d.computed != nil && subscriber(d.computed) == active {
		return nil
	}

	sl := active.links()
	l := d.activeLink
	if l == nil || l.sub != active {
		l = &link{dep: d, sub: active, version: d.version}
		d.activeLink = l
		if sl.deps == nil {
			sl.deps, sl.depsTail = l, l
		} else {
			l.prevDep = sl.depsTail
			sl.depsTail.nextDep = l
			sl.depsTail = l
		}
		addSub(l)
	} else if l.version == -1 {
		// Edge reused from a prior run: sync its version and splice it to
		// the tail so the dep list ends up in this run's access order.
		l.version = d.version
		if l.nextDep != nil {
			next := l.nextDep
			next.prevDep = l.prevDep
			if l.prevDep != nil {
				l.prevDep.nextDep = next
			}
			l.prevDep = sl.depsTail
			l.nextDep = nil
			sl.depsTail.nextDep = l
			sl.depsTail = l
			if sl.deps == l {
				sl.deps = next
			}
		}
	}

	if e, ok := active.(*EffectRunner); ok && e.onTrack != nil {
		e.onTrack(DebuggerEvent{Target: target, Key: key, Op: op.String()})
	}
	return l
}

// trigger invalidates the dep and notifies its subscribers.
func (d *dep) trigger(ev *DebuggerEvent) {
	d.version++
	d.rs.globalVersion++
	d.notify(ev)
}

// notify walks the subscriber list tail to head inside a batch. When a
// subscriber's notify reports it is a computed that just became dirty, the
// dirtiness is forwarded to the computed's own dep so downstream
// subscribers learn about it without deep recursion.
func (d *dep) notify(ev *DebuggerEvent) {
	rs := d.rs
	rs.StartBatch()
	defer rs.endBatchInternal()

	if ev != nil {
		for l := d.subsHead; l != nil; l = l.nextSub {
			if e, ok := l.sub.(*EffectRunner); ok && e.onTrigger != nil {
				e.onTrigger(*ev)
			}
		}
	}
	for l := d.subs; l != nil; l = l.prevSub {
		if l.sub.notify() {
			if c, ok := l.sub.(*computedBase); ok {
				c.dep.notify(nil)
			}
		}
	}
}

// addSub appends l at the tail of its dep's subscriber list and counts the
// edge. A non-tracking subscriber (a computed nobody observes yet) keeps
// the link object without entering the list; the edge goes live later via
// the resubscription cascade. When the dep belongs to a computed that had
// no listed subscribers, the computed re-subscribes to its own upstream
// deps first: computed chains only hold live edges while someone is
// observing them.
func addSub(l *link) {
	d := l.dep
	if l.sub.links().flags&fTracking == 0 {
		return
	}
	if c := d.computed; c != nil && d.subs == nil {
		c.flags |= fTracking | fDirty
		for cl := c.deps; cl != nil; cl = cl.nextDep {
			addSub(cl)
		}
	}
	tail := d.subs
	if tail != l {
		l.prevSub = tail
		if tail != nil {
			tail.nextSub = l
		}
	}
	if d.subsHead == nil {
		d.subsHead = l
	}
	d.subs = l
	d.subCount++
}

// removeSub unlinks l from its dep's subscriber list. The soft form is used
// when a computed loses its last subscriber: the computed's own edges stay
// in place (so re-subscription can re-arm the same dep set in one pass) and
// the registry entry survives, but subCount drops so the dep reads as
// empty. Only a hard removal reaching zero evicts the registry entry; a
// soft-empty dep must stay findable or a later Track would mint a second
// dep for the same key behind the computed's back.
func removeSub(l *link, soft bool) {
	d := l.dep
	inList := l.prevSub != nil || l.nextSub != nil || d.subs == l
	prev, next := l.prevSub, l.nextSub
	if prev != nil {
		prev.nextSub = next
		l.prevSub = nil
	}
	if next != nil {
		next.prevSub = prev
		l.nextSub = nil
	}
	if d.subsHead == l {
		d.subsHead = next
	}
	if d.subs == l {
		d.subs = prev
		if prev == nil && d.computed != nil {
			// Last subscriber gone: soft-unsubscribe the computed from its
			// own deps, keeping the link objects for later re-use.
			d.computed.flags &^= fTracking
			for cl := d.computed.deps; cl != nil; cl = cl.nextDep {
				removeSub(cl, true)
			}
		}
	}
	if !inList {
		return
	}
	d.subCount--
	if !soft && d.subCount == 0 && d.owner != nil {
		delete(d.owner.deps, d.key)
		if len(d.owner.deps) == 0 {
			delete(d.rs.targetMap, d.owner.target)
		}
	}
}
