// internal/conversation/state.go
package conversation

import "sync"

type StateKind int

const (
	Idle StateKind = iota
	AwaitingRecipient
	AwaitingAmount
)

func (k StateKind) String() string {
	switch k {
	case Idle:
		return "idle"
	case AwaitingRecipient:
		return "awaiting_recipient"
	case AwaitingAmount:
		return "awaiting_amount"
	default:
		return "unknown"
	}
}

// State is the pending transfer of one identity. Recipient is set only
// in AwaitingAmount.
type State struct {
	Kind      StateKind
	Recipient string
}

// Store holds at most one pending state per identity. Idle is never stored.
type Store struct {
	mu     sync.Mutex
	states map[int64]State
}

func NewStore() *Store {
	return &Store{states: make(map[int64]State)}
}

func (s *Store) Get(id int64) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[id]
}

func (s *Store) Set(id int64, st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st.Kind == Idle {
		delete(s.states, id)
		return
	}
	s.states[id] = st
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.states)
}
