// Package ripple is a fine-grained reactivity core: it tracks which
// reactive sources a computation actually read and re-runs the computation
// when one of them changes.
//
// The graph is built from three pieces. A dep is a versioned source. An
// effect is a re-runnable function whose reads are recorded as edges. A
// computed is a lazy cached derivation that is both a subscriber of what it
// reads and a source for whoever reads it. Edges are intrusive link nodes
// living in two doubly-linked lists at once, so tracking and cleanup are
// allocation-light and O(1) per edge.
//
// Writes are batched: inside StartBatch/EndBatch many triggers collapse
// into at most one run per effect, flushed in registration order when the
// outermost batch closes. Computeds are never recomputed by the flush; they
// refresh on their next read, which makes reads glitch-free even mid-batch.
//
// All state lives in a ReactiveSystem and is single-mutator: one goroutine
// drives a system at a time.
package ripple
