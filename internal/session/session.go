package session

import "sync"

// State is the position of an analysis session in its lifecycle
type State int

const (
	Idle State = iota
	Loading
	Success
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Kind distinguishes what a request was for
type Kind string

const (
	KindProfile    Kind = "profile"
	KindComparison Kind = "comparison"
)

// Ticket identifies one request. Only the ticket of the latest Begin can
// resolve the session.
type Ticket struct {
	Generation uint64
	Kind       Kind
}

// Snapshot is a copy of the session at one point in time
type Snapshot struct {
	State      State
	Kind       Kind
	Generation uint64
	Value      interface{}
	Err        error
	Discarded  uint64
}

// Session is the idle → loading → success|error state machine shared by the
// profile and comparison flows. Beginning a new request supersedes the one
// in flight; its late result is discarded on arrival.
type Session struct {
	mu         sync.Mutex
	state      State
	kind       Kind
	generation uint64
	value      interface{}
	err        error
	discarded  uint64
}

// New returns an idle session
func New() *Session {
	return &Session{}
}

// Begin moves to Loading and returns the ticket for the new request
func (s *Session) Begin(kind Kind) Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.state = Loading
	s.kind = kind
	s.value = nil
	s.err = nil

	return Ticket{Generation: s.generation, Kind: kind}
}

// Resolve stores v and moves to Success. It returns false and changes
// nothing when t has been superseded.
func (s *Session) Resolve(t Ticket, v interface{}) bool {
	return s.finish(t, Success, v, nil)
}

// Reject stores err and moves to Error. It returns false and changes
// nothing when t has been superseded.
func (s *Session) Reject(t Ticket, err error) bool {
	return s.finish(t, Error, nil, err)
}

func (s *Session) finish(t Ticket, state State, v interface{}, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.Generation != s.generation || s.state != Loading {
		s.discarded++
		return false
	}

	s.state = state
	s.value = v
	s.err = err
	return true
}

// Clear returns to Idle from any state. A request still in flight is
// superseded.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.state = Idle
	s.kind = ""
	s.value = nil
	s.err = nil
}

// Current reports whether t is still the latest request
func (s *Session) Current(t Ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return t.Generation == s.generation
}

// Snapshot returns a copy of the session state
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		State:      s.state,
		Kind:       s.kind,
		Generation: s.generation,
		Value:      s.value,
		Err:        s.err,
		Discarded:  s.discarded,
	}
}
