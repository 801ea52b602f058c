package ripple

import (
	"encoding/json"
	"fmt"
)

// Cell is implemented by both writeable signals and computeds, so
// consumers can hold mixed graphs and type-switch on the concrete
// kinds. Only this package can implement it.
type Cell interface {
	removeSub(e *effect)
}

// store is the value cell shared by WriteableSignal and ReadonlySignal:
// storage plus the subscriber list, with one tracked-read primitive
// that every surface form (Value, String, MarshalJSON) routes through.
type store[T comparable] struct {
	rs    *ReactiveSystem
	value T
	subs  []*effect
}

// read subscribes the active effect, if any, and returns the value.
// The edge is recorded on both sides: the effect joins the subscriber
// list and the cell joins the effect's dependency set. Reading the
// same cell again during one run adds nothing.
func (s *store[T]) read() T {
	if e := s.rs.activeEffect; e != nil {
		if e.cells.Add(s) {
			s.subs = append(s.subs, e)
		}
	}
	return s.value
}

// write dispatches to a snapshot of the subscriber list, so effects
// re-subscribing or unsubscribing mid-dispatch cannot corrupt the
// iteration or be delivered twice. Writing an equal value does
// nothing.
func (s *store[T]) write(v T) {
	if v == s.value {
		return
	}
	s.value = v

	subs := make([]*effect, len(s.subs))
	copy(subs, s.subs)
	for _, e := range subs {
		if s.rs.batchDepth > 0 {
			s.rs.enqueue(e)
		} else {
			e.invoke()
		}
	}
}

func (s *store[T]) removeSub(e *effect) {
	for i, sub := range s.subs {
		if sub == e {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return
		}
	}
}

// WriteableSignal is a mutable reactive value cell. Reading it inside
// a running effect subscribes that effect; writing a different value
// notifies subscribers in subscription order.
type WriteableSignal[T comparable] struct {
	store[T]
}

func Signal[T comparable](rs *ReactiveSystem, initialValue T) *WriteableSignal[T] {
	s := &WriteableSignal[T]{}
	s.rs = rs
	s.value = initialValue
	return s
}

// Value is a tracked read.
func (s *WriteableSignal[T]) Value() T {
	return s.read()
}

// Peek returns the current value without creating a subscription,
// regardless of whether an effect is running.
func (s *WriteableSignal[T]) Peek() T {
	return s.value
}

func (s *WriteableSignal[T]) SetValue(v T) {
	s.write(v)
}

func (s *WriteableSignal[T]) String() string {
	return fmt.Sprint(s.Value())
}

func (s *WriteableSignal[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Value())
}
