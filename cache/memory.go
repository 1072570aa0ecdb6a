package cache

import (
	"container/list"
	"context"
	"sync"
)

// Memory is an in-process LRU store.
type Memory struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	items    map[Key]*list.Element
	closed   bool
}

type memoryItem struct {
	key   Key
	entry Entry
}

// NewMemory returns an LRU holding at most capacity entries (minimum 1).
func NewMemory(capacity int) *Memory {
	if capacity < 1 {
		capacity = 1
	}
	return &Memory{capacity: capacity, order: list.New(), items: make(map[Key]*list.Element)}
}

func (m *Memory) Get(_ context.Context, key Key) (Entry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return Entry{}, false, ErrClosed
	}
	el, ok := m.items[key]
	if !ok {
		return Entry{}, false, nil
	}
	m.order.MoveToFront(el)
	return el.Value.(*memoryItem).entry, true, nil
}

func (m *Memory) Put(_ context.Context, key Key, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if el, ok := m.items[key]; ok {
		el.Value.(*memoryItem).entry = entry
		m.order.MoveToFront(el)
		return nil
	}
	m.items[key] = m.order.PushFront(&memoryItem{key: key, entry: entry})
	for m.order.Len() > m.capacity {
		oldest := m.order.Back()
		m.order.Remove(oldest)
		delete(m.items, oldest.Value.(*memoryItem).key)
	}
	return nil
}

// Len reports the number of cached entries.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order.Len()
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.items = nil
	m.order.Init()
	return nil
}
