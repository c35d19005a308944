package ripple

import "reflect"

// keyDeps holds the per-key deps of one tracked target.
type keyDeps struct {
	target any
	deps   map[any]*dep
}

// Track records that the active subscriber read key on target. No-op when
// tracking is disabled or nothing is running. Targets are keyed by
// identity: pass pointers for slices and maps (neither is comparable).
func (rs *ReactiveSystem) Track(target any, op TrackOpType, key any) {
	if !rs.shouldTrack || rs.activeSub == nil {
		return
	}
	km := rs.targetMap[target]
	if km == nil {
		km = &keyDeps{target: target, deps: map[any]*dep{}}
		rs.targetMap[target] = km
	}
	d := km.deps[key]
	if d == nil {
		d = &dep{rs: rs, owner: km, key: key}
		km.deps[key] = d
	}
	d.track(target, op, key)
}

// Trigger signals that key on target was written. Targets nobody tracks
// only bump the global version. newValue is consulted for slice length
// changes (to bound which index deps are invalidated) and debug events.
func (rs *ReactiveSystem) Trigger(target any, op TriggerOpType, key any, newValue any) {
	km := rs.targetMap[target]
	if km == nil {
		rs.globalVersion++
		return
	}

	ev := &DebuggerEvent{Target: target, Key: key, Op: op.String()}
	run := func(d *dep) {
		if d != nil {
			d.trigger(ev)
		}
	}

	rs.StartBatch()
	defer rs.endBatchInternal()

	kind := targetKind(target)
	isArray := kind == reflect.Slice || kind == reflect.Array
	isMap := kind == reflect.Map
	_, keyIsInt := key.(int)

	switch {
	case op == TriggerOpClear:
		for _, d := range km.deps {
			run(d)
		}

	case isArray && key == LengthKey:
		newLen, ok := newValue.(int)
		if !ok {
			newLen = 0 // unknown new length: invalidate every index dep
		}
		for k, d := range km.deps {
			if k == LengthKey || k == ArrayIterateKey {
				run(d)
				continue
			}
			if ik, isInt := k.(int); isInt && ik >= newLen {
				run(d)
			}
		}

	default:
		run(km.deps[key])
		if keyIsInt && isArray {
			run(km.deps[ArrayIterateKey])
		}
		switch op {
		case TriggerOpAdd:
			if !isArray {
				run(km.deps[IterateKey])
				if isMap {
					run(km.deps[MapKeyIterateKey])
				}
			} else if keyIsInt {
				run(km.deps[LengthKey])
			}
		case TriggerOpDelete:
			if !isArray {
				run(km.deps[IterateKey])
				if isMap {
					run(km.deps[MapKeyIterateKey])
				}
			}
		case TriggerOpSet:
			if isMap {
				run(km.deps[IterateKey])
			}
		}
	}
}

// targetKind resolves the dispatch kind of a target, unwrapping one level
// of pointer (the comparable handle collaborators pass for slices/maps).
func targetKind(target any) reflect.Kind {
	rv := reflect.ValueOf(target)
	if !rv.IsValid() {
		return reflect.Invalid
	}
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
		if !rv.IsValid() {
			return reflect.Invalid
		}
	}
	return rv.Kind()
}
