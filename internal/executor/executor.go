// Package executor drives a single Future to completion on the calling
// goroutine by polling it in a loop.
//
// The executor never parks waiting for a wake-up. Pending polls are
// followed by a CPU spin hint, and after SpinThreshold consecutive spins
// by runtime.Gosched, after which spinning starts over. A Future run here
// must therefore make progress simply by being polled again. Futures that
// only complete after some other party calls Waker.Wake will spin forever.
// Blocking and Try build futures that satisfy this by doing their blocking
// work inside Poll.
package executor

import "runtime"

// SpinThreshold is the number of consecutive spins before the executor
// yields the processor.
const SpinThreshold = 150_000

// Waker is handed to every Poll call.
type Waker interface {
	Wake()
}

type noopWaker struct{}

func (noopWaker) Wake() {}

// Future is a computation that completes after one or more polls.
// Poll returns the value and true once complete, and false while pending.
type Future[T any] interface {
	Poll(w Waker) (T, bool)
}

// FutureFunc adapts a function to a Future.
type FutureFunc[T any] func(w Waker) (T, bool)

func (f FutureFunc[T]) Poll(w Waker) (T, bool) {
	return f(w)
}

// Blocking returns a Future that runs fn on its first poll.
func Blocking[T any](fn func() T) Future[T] {
	return FutureFunc[T](func(Waker) (T, bool) {
		return fn(), true
	})
}

// Result carries a computation's value together with its error.
type Result[T any] struct {
	Value T
	Err   error
}

// Try returns a Future that runs fn on its first poll and carries both of
// its results.
func Try[T any](fn func() (T, error)) Future[Result[T]] {
	return Blocking(func() Result[T] {
		v, err := fn()
		return Result[T]{Value: v, Err: err}
	})
}

// Stats describes how a Future was driven.
type Stats struct {
	Polls  int
	Spins  int
	Yields int
}

// Execute polls f until it completes and returns its value.
func Execute[T any](f Future[T]) T {
	v, _ := Run(f)
	return v
}

// Run is Execute that also reports polling statistics.
func Run[T any](f Future[T]) (T, Stats) {
	var (
		waker noopWaker
		stats Stats
		spins int
	)

	for {
		stats.Polls++
		if v, ok := f.Poll(waker); ok {
			return v, stats
		}

		if spins < SpinThreshold {
			spinPause()
			spins++
			stats.Spins++
			continue
		}

		runtime.Gosched()
		spins = 0
		stats.Yields++
	}
}
