// internal/lock/local.go
package lock

import (
	"context"
	"sync"
	"time"
)

// LocalLocker is an in-process Locker used when redis is not configured.
// Expiry is ignored; holders must release.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]struct{})}
}

func (l *LocalLocker) Acquire(_ context.Context, key string, _ time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[key]; ok {
		return nil, ErrLocked
	}
	l.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}, nil
}

// KeyedQueue runs jobs one at a time per key, in submission order, while
// different keys proceed in parallel. A key's worker exits once its queue
// is empty.
type KeyedQueue struct {
	mu     sync.Mutex
	queues map[int64][]func()
	wg     sync.WaitGroup
}

func NewKeyedQueue() *KeyedQueue {
	return &KeyedQueue{queues: make(map[int64][]func())}
}

// Submit appends job to key's queue. It never blocks on the job.
func (q *KeyedQueue) Submit(key int64, job func()) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if pending, running := q.queues[key]; running {
		q.queues[key] = append(pending, job)
		return
	}
	q.queues[key] = []func(){job}
	q.wg.Add(1)
	go q.drain(key)
}

// Wait blocks until every submitted job has run.
func (q *KeyedQueue) Wait() {
	q.wg.Wait()
}

func (q *KeyedQueue) drain(key int64) {
	defer q.wg.Done()
	for {
		q.mu.Lock()
		pending := q.queues[key]
		if len(pending) == 0 {
			delete(q.queues, key)
			q.mu.Unlock()
			return
		}
		job := pending[0]
		q.queues[key] = pending[1:]
		q.mu.Unlock()

		job()
	}
}

func (q *KeyedQueue) size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queues)
}
