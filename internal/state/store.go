package state

import "sync"

// Store holds the current State and replaces it wholesale on every Dispatch.
type Store struct {
	mu      sync.RWMutex
	current State

	// notifyMu keeps deliveries in dispatch order.
	notifyMu sync.Mutex

	subMu  sync.Mutex
	nextID int
	subs   map[int]func(State)
}

func NewStore(initial State) *Store {
	return &Store{
		current: initial,
		subs:    make(map[int]func(State)),
	}
}

func (st *Store) Snapshot() State {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.current
}

// Dispatch applies t and delivers the resulting State to every subscriber.
// Subscribers must not call Dispatch themselves.
func (st *Store) Dispatch(t Transition) State {
	st.mu.Lock()
	next := t(st.current)
	st.current = next
	st.notifyMu.Lock()
	st.mu.Unlock()
	defer st.notifyMu.Unlock()

	st.subMu.Lock()
	subs := make([]func(State), 0, len(st.subs))
	for _, fn := range st.subs {
		subs = append(subs, fn)
	}
	st.subMu.Unlock()

	for _, fn := range subs {
		fn(next)
	}

	return next
}

// Subscribe registers fn and returns a function that removes it.
func (st *Store) Subscribe(fn func(State)) func() {
	st.subMu.Lock()
	defer st.subMu.Unlock()

	id := st.nextID
	st.nextID++
	st.subs[id] = fn

	return func() {
		st.subMu.Lock()
		defer st.subMu.Unlock()
		delete(st.subs, id)
	}
}
