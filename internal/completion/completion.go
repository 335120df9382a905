// Package completion carries the single terminal result of a background
// task back to the goroutine that is waiting for it.
//
// A channel is created per task with New. The task owns the Sender and
// calls Send exactly once when it has fully finished. The consumer owns the
// Receiver and either waits with Recv or hands the value to an event loop
// with Attach. Send never blocks: the value is buffered, and it is dropped
// once the receiver has been closed.
package completion

import (
	"context"
	"sync"
)

// Poster runs a function on the consumer's goroutine. *eventloop.Loop
// satisfies it.
type Poster interface {
	Post(fn func()) bool
}

// Sender is the producing half of a completion channel.
type Sender[T any] struct {
	ch   chan T
	done <-chan struct{}
	once sync.Once
}

// Receiver is the consuming half of a completion channel.
type Receiver[T any] struct {
	ch        chan T
	done      chan struct{}
	closeOnce sync.Once
}

// New returns a connected sender and receiver.
func New[T any]() (*Sender[T], *Receiver[T]) {
	ch := make(chan T, 1)
	done := make(chan struct{})
	return &Sender[T]{ch: ch, done: done}, &Receiver[T]{ch: ch, done: done}
}

// Send delivers v. Only the first call has any effect. It reports whether
// the value was handed over; false means it was a repeat call or the
// receiver was already closed.
func (s *Sender[T]) Send(v T) bool {
	sent := false
	s.once.Do(func() {
		select {
		case <-s.done:
			return
		default:
		}
		// Capacity one and a single send: this never blocks.
		s.ch <- v
		sent = true
	})
	return sent
}

// C exposes the underlying channel for use in select statements.
func (r *Receiver[T]) C() <-chan T {
	return r.ch
}

// Recv waits for the value or for ctx to end.
func (r *Receiver[T]) Recv(ctx context.Context) (T, error) {
	select {
	case v := <-r.ch:
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Close tears down the receiver. A value sent afterwards is dropped.
func (r *Receiver[T]) Close() {
	r.closeOnce.Do(func() { close(r.done) })
}

// Attach waits for the value on a helper goroutine and posts fn(v) to p,
// so fn runs once on the consumer's goroutine. Once the receiver is closed
// fn never runs, even if the value was already buffered or posted.
func (r *Receiver[T]) Attach(p Poster, fn func(T)) {
	go func() {
		select {
		case v := <-r.ch:
			if r.closed() {
				return
			}
			p.Post(func() {
				if r.closed() {
					return
				}
				fn(v)
			})
		case <-r.done:
		}
	}()
}

func (r *Receiver[T]) closed() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}
