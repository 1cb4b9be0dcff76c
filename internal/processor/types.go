package processor

import (
	"time"

	"shrinkray/internal/codec"
)

// Job is one file's conversion. Settings is shared read-only by every job of a session.
type Job struct {
	SourcePath string
	RelPath    string
	Settings   *Settings
}

// Result is produced exactly once per executed Job.
type Result struct {
	RelPath   string
	Succeeded bool
	Messages  []string
	Outputs   map[codec.Format]string
	Err       error
}

// State is a SessionController lifecycle state.
type State int

const (
	StateIdle State = iota
	StateEnumerating
	StateDispatching
	StateDraining
	StateCompleted
	StateStopped
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateEnumerating:
		return "enumerating"
	case StateDispatching:
		return "dispatching"
	case StateDraining:
		return "draining"
	case StateCompleted:
		return "completed"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether s ends a session.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateStopped || s == StateFailed
}

// Snapshot is a point-in-time copy of a session's state.
type Snapshot struct {
	ID            string // per-session UUID, also tagged on log lines
	State         State
	Running       bool
	StopRequested bool
	StartedAt     time.Time
	Elapsed       time.Duration
	Processed     int
	Failed        int
	Total         int
	Rate          float64
	ETA           time.Duration
	Err           error
}

type EventKind int

const (
	EventLog EventKind = iota
	EventTotal
	EventProgress
	EventError
	EventCompleted
	EventStopped
)

func (k EventKind) String() string {
	switch k {
	case EventLog:
		return "log"
	case EventTotal:
		return "total"
	case EventProgress:
		return "progress"
	case EventError:
		return "error"
	case EventCompleted:
		return "completed"
	case EventStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Event is one entry on a session's progress Channel. Which fields are set
// depends on Kind: Text for Log and Error, Total for Total, and
// Processed/Total/Failed/Rate/ETA for Progress.
type Event struct {
	Kind      EventKind
	Time      time.Time
	Text      string
	Processed int
	Failed    int
	Total     int
	Rate      float64
	ETA       time.Duration
}

// Terminal reports whether e is the last event a session emits.
func (e Event) Terminal() bool {
	return e.Kind == EventCompleted || e.Kind == EventStopped || e.Kind == EventError
}
