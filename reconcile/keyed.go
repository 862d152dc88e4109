package reconcile

import (
	"context"
	"sync"
)

// keyedLocks serializes work per key. Different keys never block each other.
type keyedLocks struct {
	mu    sync.Mutex
	slots map[int64]*slot
}

type slot struct {
	sem  chan struct{}
	refs int
}

// lock waits for key to be free or ctx to end.
func (k *keyedLocks) lock(ctx context.Context, key int64) (func(), error) {
	k.mu.Lock()
	if k.slots == nil {
		k.slots = make(map[int64]*slot)
	}
	s, ok := k.slots[key]
	if !ok {
		s = &slot{sem: make(chan struct{}, 1)}
		k.slots[key] = s
	}
	s.refs++
	k.mu.Unlock()

	select {
	case s.sem <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-s.sem
				k.release(key, s)
			})
		}, nil
	case <-ctx.Done():
		k.release(key, s)
		return nil, ctx.Err()
	}
}

func (k *keyedLocks) release(key int64, s *slot) {
	k.mu.Lock()
	defer k.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(k.slots, key)
	}
}
