// Package eventloop provides the single goroutine that drives all
// interactive work. Other goroutines never touch presentation state
// directly; they Post a function and the loop runs it.
package eventloop

import (
	"context"
	"log/slog"
	"sync"
)

// Loop runs posted functions one at a time, in posting order, on the
// goroutine that called Run.
type Loop struct {
	logger *slog.Logger

	mu     sync.Mutex
	queue  []func()
	closed bool

	wake chan struct{}
	quit chan struct{}
}

// New creates a loop. It does nothing until Run is called.
func New(logger *slog.Logger) *Loop {
	return &Loop{
		logger: logger,
		wake:   make(chan struct{}, 1),
		quit:   make(chan struct{}),
	}
}

// Post queues fn for the loop goroutine. It never blocks. It returns false
// once the loop has been asked to quit.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Quit stops the loop after the function currently running returns.
// Functions still queued are discarded.
func (l *Loop) Quit() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	l.closed = true
	close(l.quit)
}

// Run processes posted functions until Quit is called, returning nil, or
// until ctx ends, returning its error.
func (l *Loop) Run(ctx context.Context) error {
	for {
		for {
			fn, ok := l.next()
			if !ok {
				break
			}
			l.run(fn)
		}

		select {
		case <-l.quit:
			return nil
		case <-ctx.Done():
			l.Quit()
			return ctx.Err()
		case <-l.wake:
		}
	}
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed || len(l.queue) == 0 {
		return nil, false
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn, true
}

func (l *Loop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("event loop handler panicked", "panic", r)
		}
	}()
	fn()
}
