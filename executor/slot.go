package executor

// Slot holds at most one value. It has a single writer and a single reader, both running
// on the device's only thread, so it carries no synchronization.
type Slot[T any] struct {
	value T
	set   bool
}

// Put stores v. It returns false and leaves the slot untouched if it is already occupied.
func (s *Slot[T]) Put(v T) bool {
	if s.set {
		return false
	}
	s.value = v
	s.set = true
	return true
}

// Take removes and returns the value, if any.
func (s *Slot[T]) Take() (T, bool) {
	v, ok := s.value, s.set
	s.Clear()
	return v, ok
}

// Peek returns the value, if any, without removing it.
func (s *Slot[T]) Peek() (T, bool) {
	return s.value, s.set
}

// IsSet reports whether the slot holds a value.
func (s *Slot[T]) IsSet() bool {
	return s.set
}

// Clear empties the slot.
func (s *Slot[T]) Clear() {
	var zero T
	s.value = zero
	s.set = false
}

// WaitFor returns a future that completes once s holds a value. The value stays in the slot.
func WaitFor[T any](s *Slot[T]) Future[struct{}] {
	return Until(s.IsSet)
}

// Until returns a future that completes on the first poll where cond reports true.
func Until(cond func() bool) Future[struct{}] {
	return PollFunc[struct{}](func() (struct{}, bool) {
		return struct{}{}, cond()
	})
}
