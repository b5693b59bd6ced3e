package upload

import (
	"sync"
)

// ValueChangeFunc observes the full file list, in insertion order, after
// files are added, removed or cleared.
type ValueChangeFunc func(files []*File)

// Store is the observable state container behind one widget. Actions are
// applied in the order Dispatch acquires the store; listeners run after
// every action, outside the store lock, so they may call Select or Dispatch.
// Value-changed notifications are delivered one at a time in action order,
// possibly by a concurrent dispatcher's goroutine.
type Store struct {
	mu      sync.RWMutex
	state   *State
	version uint64

	listenerMu sync.Mutex
	listeners  map[uint64]func()
	nextID     uint64

	onValueChange ValueChangeFunc
	// pending value changes in action order, guarded by mu; delivering
	// marks the goroutine currently draining them.
	pending    [][]*File
	delivering bool
}

// NewStore creates an empty store. onValueChange may be nil.
func NewStore(onValueChange ValueChangeFunc, invalid bool) *Store {
	s := &Store{
		state:         newState(),
		listeners:     make(map[uint64]func()),
		onValueChange: onValueChange,
	}
	s.state.Invalid = invalid
	return s
}

// Dispatch applies a and notifies the value-changed callback (when the file
// list changed) and every subscriber.
func (s *Store) Dispatch(a Action) {
	s.mu.Lock()
	listChanged := reduce(s.state, a)
	s.version++
	if listChanged && s.onValueChange != nil {
		s.pending = append(s.pending, s.state.Handles())
	}
	s.mu.Unlock()

	s.deliverValueChanges()

	s.listenerMu.Lock()
	listeners := make([]func(), 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.listenerMu.Unlock()

	for _, l := range listeners {
		l()
	}
}

// deliverValueChanges drains queued notifications unless another goroutine
// already is. A callback that dispatches queues behind the current one.
func (s *Store) deliverValueChanges() {
	s.mu.Lock()
	if s.delivering {
		s.mu.Unlock()
		return
	}
	s.delivering = true
	for len(s.pending) > 0 {
		files := s.pending[0]
		s.pending[0] = nil
		s.pending = s.pending[1:]
		s.mu.Unlock()
		s.onValueChange(files)
		s.mu.Lock()
	}
	s.delivering = false
	s.mu.Unlock()
}

// Subscribe registers listener to run after every action. The returned
// function removes it; calling it more than once is harmless.
func (s *Store) Subscribe(listener func()) (unsubscribe func()) {
	s.listenerMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = listener
	s.listenerMu.Unlock()

	return func() {
		s.listenerMu.Lock()
		delete(s.listeners, id)
		s.listenerMu.Unlock()
	}
}

// Version is a monotonic counter incremented by every action.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Read runs fn against the current state under the read lock.
// fn must not retain the *State or call Dispatch.
func (s *Store) Read(fn func(st *State)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.state)
}

// Select evaluates selector against the current state.
func Select[T any](s *Store, selector func(*State) T) T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return selector(s.state)
}

// Selector caches the result of a selector per store version, so repeated
// reads between actions skip re-evaluation.
type Selector[T any] struct {
	store    *Store
	selector func(*State) T

	mu      sync.Mutex
	valid   bool
	version uint64
	value   T
}

// NewSelector binds selector to store.
func NewSelector[T any](store *Store, selector func(*State) T) *Selector[T] {
	return &Selector[T]{store: store, selector: selector}
}

// Get returns the cached value if no action ran since the last evaluation.
func (sel *Selector[T]) Get() T {
	sel.mu.Lock()
	defer sel.mu.Unlock()

	sel.store.mu.RLock()
	defer sel.store.mu.RUnlock()

	if sel.valid && sel.version == sel.store.version {
		return sel.value
	}
	sel.value = sel.selector(sel.store.state)
	sel.version = sel.store.version
	sel.valid = true
	return sel.value
}

// Snapshot is a detached copy of the store state.
type Snapshot struct {
	Version  uint64      `json:"version"`
	Files    []FileState `json:"files"`
	DragOver bool        `json:"drag_over"`
	Invalid  bool        `json:"invalid"`
}

// Snapshot copies the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Version:  s.version,
		Files:    s.state.Files(),
		DragOver: s.state.DragOver,
		Invalid:  s.state.Invalid,
	}
}
