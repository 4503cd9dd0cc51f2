package store

import (
	"context"
	"sync"
)

// Memory is an in-process store. Subscribers are notified synchronously
// after every update that touches their subtree.
type Memory struct {
	mu     sync.Mutex
	root   any
	nextID int
	subs   map[int]*Subscription
}

// NewMemory returns an empty in-process store.
func NewMemory() *Memory {
	return &Memory{subs: make(map[int]*Subscription)}
}

// Read returns the value at path.
func (m *Memory) Read(ctx context.Context, path string) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked(path)
}

// Update merges fields into the node at path.
func (m *Memory) Update(ctx context.Context, path string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	converted := make(map[string]any, len(fields))
	for k, v := range fields {
		tv, err := toTree(v)
		if err != nil {
			return err
		}
		converted[k] = tv
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.root = mergePath(m.root, splitPath(path), converted)

	for _, sub := range m.subs {
		if !related(Join(path), sub.path) {
			continue
		}
		snap, err := m.snapshotLocked(sub.path)
		if err != nil {
			return err
		}
		sub.push(snap)
	}
	return nil
}

// Subscribe registers a subscription on path and delivers its current value.
func (m *Memory) Subscribe(ctx context.Context, path string) (*Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path = Join(path)
	subCtx, cancel := context.WithCancel(ctx)
	sub := newSubscription(path, cancel)

	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = sub
	snap, err := m.snapshotLocked(path)
	if err != nil {
		delete(m.subs, id)
		m.mu.Unlock()
		sub.Close()
		return nil, err
	}
	sub.push(snap)
	m.mu.Unlock()

	go func() {
		<-subCtx.Done()
		m.remove(id)
		sub.Close()
	}()
	return sub, nil
}

func (m *Memory) remove(id int) {
	m.mu.Lock()
	delete(m.subs, id)
	m.mu.Unlock()
}

func (m *Memory) snapshotLocked(path string) (Snapshot, error) {
	path = Join(path)
	raw, err := encodeTree(getPath(m.root, splitPath(path)))
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Path: path, Value: raw}, nil
}
