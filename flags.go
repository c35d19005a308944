package ripple

import "github.com/cespare/xxhash/v2"

type subscriberFlags uint16

const (
	fActive subscriberFlags = 1 << iota
	fRunning
	fTracking
	fNotified
	fDirty
	fAllowRecurse
	fPaused
	fEvaluated
)

// TrackOpType enumerates the kinds of reads a collaborator can report.
type TrackOpType uint8

const (
	TrackOpGet TrackOpType = iota
	TrackOpHas
	TrackOpIterate
)

func (t TrackOpType) String() string {
	switch t {
	case TrackOpGet:
		return "get"
	case TrackOpHas:
		return "has"
	case TrackOpIterate:
		return "iterate"
	}
	return "unknown"
}

// TriggerOpType enumerates the kinds of writes a collaborator can report.
type TriggerOpType uint8

const (
	TriggerOpSet TriggerOpType = iota
	TriggerOpAdd
	TriggerOpDelete
	TriggerOpClear
)

func (t TriggerOpType) String() string {
	switch t {
	case TriggerOpSet:
		return "set"
	case TriggerOpAdd:
		return "add"
	case TriggerOpDelete:
		return "delete"
	case TriggerOpClear:
		return "clear"
	}
	return "unknown"
}

// LengthKey is the key a collaborator reports when the length of a
// slice-like target changes.
const LengthKey = "length"

// Sentinel keys for whole-container dependencies. int64 symbols so they can
// never collide with user int index keys under interface comparison.
var (
	IterateKey       = int64(xxhash.Sum64String("object iterate") & 0x7fffffffffffffff)
	MapKeyIterateKey = int64(xxhash.Sum64String("map keys iterate") & 0x7fffffffffffffff)
	ArrayIterateKey  = int64(xxhash.Sum64String("array iterate") & 0x7fffffffffffffff)
)

// SignalAware is implemented by everything the system can hand back to user
// callbacks: effect runners, computeds and signals.
type SignalAware interface {
	isSignalAware()
}

// DebuggerEvent is passed to OnTrack/OnTrigger hooks.
type DebuggerEvent struct {
	Target any
	Key    any
	Op     string
}
