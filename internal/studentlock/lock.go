// Package studentlock serializes work per student.
//
// The tutor pipeline holds a student's lock while it writes the exchange,
// so two answers for the same student never race on progress or
// gamification rows. Different students never block each other.
package studentlock

import (
	"context"
	"sync"
)

// Locker hands out per-student locks. The returned unlock func must be
// called exactly once.
type Locker interface {
	Lock(ctx context.Context, student string) (func(), error)
}

type entry struct {
	ch   chan struct{}
	refs int
}

// Local is an in-process keyed mutex. Idle keys are dropped, so the map
// only holds students with a holder or waiter.
type Local struct {
	mu    sync.Mutex
	locks map[string]*entry
}

func NewLocal() *Local {
	return &Local{locks: make(map[string]*entry)}
}

// Lock blocks until the student's lock is free or ctx is done.
func (l *Local) Lock(ctx context.Context, student string) (func(), error) {
	l.mu.Lock()
	e, ok := l.locks[student]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.locks[student] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(student, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.release(student, e)
		})
	}, nil
}

func (l *Local) release(student string, e *entry) {
	l.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, student)
	}
	l.mu.Unlock()
}

// size reports the number of tracked keys.
func (l *Local) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
