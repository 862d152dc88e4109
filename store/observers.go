package store

import "sync"

// broadcaster delivers state snapshots to subscribers. Deliveries are
// serialized and each one reads the latest state, so a subscriber never sees
// an older state after a newer one. Subscribers must not mutate the store
// from inside the callback.
type broadcaster[T any] struct {
	deliver sync.Mutex
	mu      sync.Mutex
	nextID  int
	subs    map[int]func(T)
}

func (b *broadcaster[T]) subscribe(fn func(T)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs == nil {
		b.subs = make(map[int]func(T))
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

func (b *broadcaster[T]) publish(snapshot func() T) {
	b.deliver.Lock()
	defer b.deliver.Unlock()
	b.mu.Lock()
	subs := make([]func(T), 0, len(b.subs))
	for id := 0; id < b.nextID; id++ {
		if fn, ok := b.subs[id]; ok {
			subs = append(subs, fn)
		}
	}
	b.mu.Unlock()
	if len(subs) == 0 {
		return
	}
	state := snapshot()
	for _, fn := range subs {
		fn(state)
	}
}

func (b *broadcaster[T]) clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = nil
}
