package ripple

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrReadOnly is the panic value raised when writing a computed.
var ErrReadOnly = errors.New("ripple: computed signals are read-only")

// ReadonlySignal is a cell whose value is derived from other cells. It
// composes the same storage a writeable signal uses with a backing
// effect that re-runs the getter whenever a dependency changes and
// writes the result through the ordinary signal write path, so
// downstream subscribers see it exactly like any other signal.
//
// The backing effect is created lazily: a computed that is never read
// never runs its getter.
type ReadonlySignal[T comparable] struct {
	store[T]
	getter  func(oldValue T) T
	backing *effect
}

func Computed[T comparable](rs *ReactiveSystem, getter func(oldValue T) T, initial ...T) *ReadonlySignal[T] {
	c := &ReadonlySignal[T]{getter: getter}
	c.rs = rs
	if len(initial) > 0 {
		c.value = initial[0]
	}
	return c
}

// ensure materializes the backing effect on first use. It is created
// outside the parent/child cascade: the computed owns it for its whole
// lifetime, no matter which effect happened to trigger the first read.
func (c *ReadonlySignal[T]) ensure() {
	if c.backing != nil {
		return
	}
	c.backing = newEffect(c.rs, func() {
		c.write(c.getter(c.value))
	})
	c.backing.invoke()
}

// Value is a tracked read. The first call runs the getter once; later
// calls return the cached value without recomputing unless a
// dependency changed in between.
func (c *ReadonlySignal[T]) Value() T {
	c.ensure()
	return c.read()
}

// Peek returns the current value without subscribing the caller.
func (c *ReadonlySignal[T]) Peek() T {
	c.ensure()
	return c.value
}

// SetValue always panics with ErrReadOnly; computed values are derived
// only.
func (c *ReadonlySignal[T]) SetValue(v T) {
	panic(ErrReadOnly)
}

func (c *ReadonlySignal[T]) String() string {
	return fmt.Sprint(c.Value())
}

func (c *ReadonlySignal[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Value())
}
