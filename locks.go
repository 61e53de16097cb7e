package duotext

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// BusyPolicy decides what happens when a field is already being processed.
type BusyPolicy int

const (
	// BusyQueue waits for the in-flight operation on the field to finish.
	BusyQueue BusyPolicy = iota
	// BusyReject fails the field immediately with ErrFieldBusy.
	BusyReject
)

// String returns the config name of the policy.
func (p BusyPolicy) String() string {
	if p == BusyReject {
		return "reject"
	}
	return "queue"
}

// ParseBusyPolicy parses "queue" (or "") and "reject".
func ParseBusyPolicy(s string) (BusyPolicy, error) {
	switch s {
	case "", "queue":
		return BusyQueue, nil
	case "reject":
		return BusyReject, nil
	default:
		return BusyQueue, fmt.Errorf("unknown busy policy %q (want queue or reject)", s)
	}
}

// FieldLocks serializes read-modify-write cycles per field identity. A field
// key maps to a one-slot channel that is held for the whole cycle.
type FieldLocks struct {
	mu    sync.Mutex
	slots map[string]*fieldSlot
}

type fieldSlot struct {
	ch   chan struct{}
	refs int
}

// NewFieldLocks creates an empty lock set.
func NewFieldLocks() *FieldLocks {
	return &FieldLocks{slots: make(map[string]*fieldSlot)}
}

func (l *FieldLocks) ref(key string) *fieldSlot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[key]
	if !ok {
		s = &fieldSlot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	return s
}

func (l *FieldLocks) unref(key string, s *fieldSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

// Acquire blocks until key is free or ctx is done. The returned release
// function must be called exactly once.
func (l *FieldLocks) Acquire(ctx context.Context, key string) (func(), error) {
	s := l.ref(key)
	select {
	case s.ch <- struct{}{}:
		return l.releaser(key, s), nil
	case <-ctx.Done():
		l.unref(key, s)
		return nil, ctx.Err()
	}
}

// TryAcquire takes key only if it is free right now.
func (l *FieldLocks) TryAcquire(key string) (func(), bool) {
	s := l.ref(key)
	select {
	case s.ch <- struct{}{}:
		return l.releaser(key, s), true
	default:
		l.unref(key, s)
		return nil, false
	}
}

// AcquireAll takes every key in sorted order so that two callers locking
// overlapping sets cannot deadlock. On failure nothing stays held.
func (l *FieldLocks) AcquireAll(ctx context.Context, keys []string) (func(), error) {
	sorted := uniqueSorted(keys)
	releases := make([]func(), 0, len(sorted))
	releaseAll := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}
	for _, k := range sorted {
		release, err := l.Acquire(ctx, k)
		if err != nil {
			releaseAll()
			return nil, err
		}
		releases = append(releases, release)
	}
	return releaseAll, nil
}

// Held reports how many keys are currently locked or awaited.
func (l *FieldLocks) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}

func (l *FieldLocks) releaser(key string, s *fieldSlot) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			l.unref(key, s)
		})
	}
}

func uniqueSorted(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
