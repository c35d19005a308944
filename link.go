package ripple

// link is an edge between one dep and one subscriber. It is a node in two
// doubly-linked lists at once: the subscriber's dep list (nextDep/prevDep)
// and the dep's subscriber list (nextSub/prevSub). An effect's links sit in
// both lists and are removed from both together. A computed with no
// observers keeps its links in its own dep list only; they enter the deps'
// subscriber lists when someone starts observing the computed.
type link struct {
	dep *dep
	sub subscriber

	// version mirrors dep.version while the edge is live. Set to -1 at the
	// start of a subscriber run; an edge still at -1 after the run was not
	// read this time and gets dropped.
	version int

	nextDep, prevDep *link
	nextSub, prevSub *link

	// prevActiveLink saves dep.activeLink across a run so nested runs
	// restore it LIFO.
	prevActiveLink *link
}

// subLinks is the header shared by both subscriber variants: the flag set,
// the owned dep list and the batch list pointer. next is only meaningful
// while fNotified is set.
type subLinks struct {
	flags       subscriberFlags
	deps        *link
	depsTail    *link
	next        subscriber
	manualDirty bool
}

func (s *subLinks) links() *subLinks { return s }

// subscriber is the common capability set of the two graph node variants.
// notify reports true when the receiver is a computed that was dirtied, so
// the caller can forward the notification to the computed's own dep.
type subscriber interface {
	links() *subLinks
	notify() bool
}

// prepareDeps arms every existing edge before a run: version -1 marks the
// edge unused, and dep.activeLink is pointed at it so track can recognize
// the edge in O(1).
func prepareDeps(s *subLinks) {
	for l := s.deps; l != nil; l = l.nextDep {
		l.version = -1
		l.prevActiveLink = l.dep.activeLink
		l.dep.activeLink = l
	}
}

// cleanupDeps sweeps the dep list tail to head after a run, dropping edges
// that were not read (still at version -1) and restoring each dep's saved
// activeLink. Walking backwards keeps the head pointer correct while older
// unused edges are unlinked.
func cleanupDeps(s *subLinks) {
	var head *link
	tail := s.depsTail
	for l := tail; l != nil; {
		prev := l.prevDep
		if l.version == -1 {
			if l == tail {
				tail = prev
			}
			removeSub(l, false)
			removeDep(l)
		} else {
			head = l
		}
		l.dep.activeLink = l.prevActiveLink
		l.prevActiveLink = nil
		l = prev
	}
	s.deps = head
	s.depsTail = tail
}

// removeDep unlinks l from its subscriber's dep list.
func removeDep(l *link) {
	prev, next := l.prevDep, l.nextDep
	if prev != nil {
		prev.nextDep = next
		l.prevDep = nil
	}
	if next != nil {
		next.prevDep = prev
		l.nextDep = nil
	}
}

// isDirty reports whether any edge of s points at a dep that moved past the
// version recorded on the edge. Upstream computeds are refreshed first so a
// stale-but-unchanged chain does not count as dirty. Walks in access order
// and short-circuits on the first dirty edge.
func isDirty(s *subLinks) bool {
	for l := s.deps; l != nil; l = l.nextDep {
		if l.dep.version != l.version {
			return true
		}
		if c := l.dep.computed; c != nil {
			c.refresh()
			if l.dep.version != l.version {
				return true
			}
		}
	}
	return s.manualDirty
}
