// Package guard serializes work per wallet inside one process.
//
// Each wallet key maps to a weighted semaphore of size one. Multi-key
// acquisitions take keys in ascending order so that two callers locking the
// same pair can never deadlock.
package guard

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrAcquireTimeout is returned when a wallet stays busy past the wait bound.
var ErrAcquireTimeout = errors.New("timed out waiting for wallet lock")

type entry struct {
	sem  *semaphore.Weighted
	refs int
}

// Guard hands out exclusive access to wallet keys. The zero value is not usable.
type Guard struct {
	mu      sync.Mutex
	entries map[int64]*entry
	timeout time.Duration
}

// New returns a guard that waits at most timeout per acquisition.
// A non-positive timeout waits until ctx is done.
func New(timeout time.Duration) *Guard {
	return &Guard{entries: make(map[int64]*entry), timeout: timeout}
}

// Acquire locks every key in ascending order and returns a release func that
// unlocks them in reverse. Duplicate keys are locked once. On failure nothing
// stays locked.
func (g *Guard) Acquire(ctx context.Context, keys ...int64) (func(), error) {
	ordered := slices.Clone(keys)
	slices.Sort(ordered)
	ordered = slices.Compact(ordered)

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	held := make([]int64, 0, len(ordered))
	for _, key := range ordered {
		e := g.ref(key)
		if err := e.sem.Acquire(ctx, 1); err != nil {
			g.unref(key)
			g.releaseAll(held)
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, ErrAcquireTimeout
			}
			return nil, err
		}
		held = append(held, key)
	}

	var once sync.Once
	return func() {
		once.Do(func() { g.releaseAll(held) })
	}, nil
}

func (g *Guard) releaseAll(held []int64) {
	for i := len(held) - 1; i >= 0; i-- {
		g.mu.Lock()
		e := g.entries[held[i]]
		g.mu.Unlock()
		e.sem.Release(1)
		g.unref(held[i])
	}
}

// ref returns the entry for key and pins it until unref.
func (g *Guard) ref(key int64) *entry {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.entries[key]
	if !ok {
		e = &entry{sem: semaphore.NewWeighted(1)}
		g.entries[key] = e
	}
	e.refs++
	return e
}

func (g *Guard) unref(key int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	e := g.entries[key]
	e.refs--
	if e.refs == 0 {
		delete(g.entries, key)
	}
}

// Len returns the number of keys currently held or awaited.
func (g *Guard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}
