// Package worker runs long store operations off the interactive goroutine.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// ErrPoolClosed is returned by Spawn after Close.
var ErrPoolClosed = errors.New("worker pool closed")

type job struct {
	id   string
	name string
	fn   func()
}

// Pool runs submitted tasks on at most size goroutines at a time. Tasks
// start in submission order. Every accepted task runs to completion; a
// panicking task is logged and does not affect the others.
type Pool struct {
	logger *slog.Logger
	size   int64
	sem    *semaphore.Weighted

	mu     sync.Mutex
	queue  []job
	closed bool

	wake chan struct{}
	done chan struct{}
}

// New starts a pool with the given concurrency. Sizes below one are raised
// to one.
func New(size int, logger *slog.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	p := &Pool{
		logger: logger.With("component", "worker"),
		size:   int64(size),
		sem:    semaphore.NewWeighted(int64(size)),
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go p.dispatch()
	return p
}

// Spawn queues task and returns its identifier without waiting for a free
// worker.
func (p *Pool) Spawn(name string, task func()) (string, error) {
	j := job{id: uuid.NewString(), name: name, fn: task}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.logger.Warn("task rejected", "task", name, "error", ErrPoolClosed)
		return "", ErrPoolClosed
	}
	p.queue = append(p.queue, j)
	p.mu.Unlock()

	p.signal()
	p.logger.Debug("task queued", "task", name, "id", j.id)
	return j.id, nil
}

// Close stops accepting tasks, then blocks until every queued and running
// task has finished.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.signal()
	<-p.done
}

func (p *Pool) signal() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *Pool) dispatch() {
	defer close(p.done)

	// Tasks are not cancellable, so the semaphore is never given a context
	// that can end.
	ctx := context.Background()
	for {
		j, ok, closed := p.next()
		if ok {
			_ = p.sem.Acquire(ctx, 1)
			go p.run(j)
			continue
		}
		if closed {
			_ = p.sem.Acquire(ctx, p.size)
			p.sem.Release(p.size)
			return
		}
		<-p.wake
	}
}

func (p *Pool) next() (j job, ok, closed bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.queue) == 0 {
		return job{}, false, p.closed
	}
	j = p.queue[0]
	p.queue[0] = job{}
	p.queue = p.queue[1:]
	return j, true, p.closed
}

func (p *Pool) run(j job) {
	start := time.Now()
	defer p.sem.Release(1)
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("task panicked", "task", j.name, "id", j.id, "panic", r)
		}
	}()

	p.logger.Debug("task started", "task", j.name, "id", j.id)
	j.fn()
	p.logger.Debug("task finished", "task", j.name, "id", j.id, "duration", time.Since(start).Round(time.Millisecond))
}
