package inventory

import "sync"

// State is where a mutation request stands for one (item, op) pair.
type State string

const (
	StateIdle      State = "IDLE"
	StateInFlight  State = "IN_FLIGHT"
	StateConfirmed State = "CONFIRMED"
	StateRejected  State = "REJECTED"
)

type slotKey struct {
	target string
	op     Op
}

// slots allows one in-flight request per key and remembers how the last one ended.
type slots struct {
	mu    sync.Mutex
	state map[slotKey]State
}

func newSlots() *slots {
	return &slots{state: make(map[slotKey]State)}
}

func (s *slots) acquire(k slotKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state[k] == StateInFlight {
		return false
	}
	s.state[k] = StateInFlight
	return true
}

func (s *slots) release(k slotKey, outcome State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state[k] = outcome
}

func (s *slots) get(k slotKey) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.state[k]; ok {
		return st
	}
	return StateIdle
}
