package executor

// Future is a suspendable computation. Poll either completes it, returning the value and
// true, or reports that it is not done yet. Nothing wakes a pending future: the owner
// polls again on its own schedule, typically once per main loop iteration.
//
// A future must not be polled again after it has completed.
type Future[T any] interface {
	Poll() (T, bool)
}

// PollFunc adapts a plain function to Future.
type PollFunc[T any] func() (T, bool)

// Poll calls f.
func (f PollFunc[T]) Poll() (T, bool) {
	return f()
}

// Spin polls f exactly once.
func Spin[T any](f Future[T]) (T, bool) {
	return f.Poll()
}

// Ready returns a future that completes with v on its first poll.
func Ready[T any](v T) Future[T] {
	return ready[T]{value: v}
}

type ready[T any] struct {
	value T
}

func (r ready[T]) Poll() (T, bool) {
	return r.value, true
}

// Then runs first and, once it completes, the future returned by next.
// Both stages may take any number of polls.
func Then[A, B any](first Future[A], next func(A) Future[B]) Future[B] {
	return &then[A, B]{first: first, next: next}
}

type then[A, B any] struct {
	first  Future[A]
	next   func(A) Future[B]
	second Future[B]
}

func (t *then[A, B]) Poll() (B, bool) {
	if t.second == nil {
		a, ok := t.first.Poll()
		if !ok {
			var zero B
			return zero, false
		}
		t.second = t.next(a)
		t.first = nil
	}
	return t.second.Poll()
}

// Map transforms the result of f with fn.
func Map[A, B any](f Future[A], fn func(A) B) Future[B] {
	return PollFunc[B](func() (B, bool) {
		a, ok := f.Poll()
		if !ok {
			var zero B
			return zero, false
		}
		return fn(a), true
	})
}
