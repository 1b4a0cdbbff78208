package rx

import "sync"

// multicast keeps outlets in registration order and broadcasts to a
// snapshot of them, so registrations and removals never race a delivery.
type multicast[T any] struct {
	mu      sync.Mutex
	outlets []*outlet[T]
}

// add registers o unless it was cancelled first. A cancellation racing add
// removes o after the lock is released.
func (m *multicast[T]) add(o *outlet[T]) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !o.active() {
		return false
	}
	m.outlets = append(m.outlets, o)
	return true
}

func (m *multicast[T]) remove(o *outlet[T]) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, out := range m.outlets {
		if out == o {
			m.outlets = append(m.outlets[:i], m.outlets[i+1:]...)
			return true
		}
	}
	return false
}

func (m *multicast[T]) snapshot() []*outlet[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	outlets := make([]*outlet[T], len(m.outlets))
	copy(outlets, m.outlets)
	return outlets
}

// drain removes and returns every outlet.
func (m *multicast[T]) drain() []*outlet[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	outlets := m.outlets
	m.outlets = nil
	return outlets
}

func (m *multicast[T]) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.outlets)
}

// broadcast returns the number of subscribers that received v.
func (m *multicast[T]) broadcast(v T) int {
	var delivered int
	for _, out := range m.snapshot() {
		if out.Push(v) {
			delivered++
		}
	}
	return delivered
}
