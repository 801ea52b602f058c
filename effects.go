package ripple

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// effect is the runtime half of Effect and the backing computation of
// a ReadonlySignal. It tracks the cells read during its latest run and
// the child effects created during that run; both are torn down before
// every re-run and on disposal.
type effect struct {
	rs       *ReactiveSystem
	run      func()
	cells    mapset.Set[Cell]
	children []*effect
	disposed bool
}

func newEffect(rs *ReactiveSystem, run func()) *effect {
	return &effect{
		rs:    rs,
		run:   run,
		cells: mapset.NewThreadUnsafeSet[Cell](),
	}
}

// invoke runs the callback with this effect installed as the tracking
// context. Dependencies are rebuilt from scratch each run, so an
// effect that conditionally reads different cells tracks only what the
// latest run read. The previous context is restored by defer, so a
// panic escaping the callback unwinds with tracking intact.
func (e *effect) invoke() {
	if e.disposed {
		return
	}
	e.cleanup()

	prev := e.rs.activeEffect
	e.rs.activeEffect = e
	defer func() {
		e.rs.activeEffect = prev
	}()
	e.run()
}

// cleanup removes this effect from every cell it subscribed to and
// disposes every effect created during its latest run.
func (e *effect) cleanup() {
	for c := range e.cells.Iter() {
		c.removeSub(e)
	}
	e.cells.Clear()

	children := e.children
	e.children = nil
	for _, child := range children {
		child.dispose()
	}
}

// dispose is idempotent. After it returns the callback never runs
// again, even for a notification already pending in an open batch.
func (e *effect) dispose() {
	if e.disposed {
		return
	}
	e.disposed = true
	e.cleanup()
}

// Effect runs fn immediately and again whenever any signal or computed
// it read on its latest run changes. fn receives the value it returned
// on the previous run (or initial, or the zero value). Effects created
// while another effect is running are disposed along with it. The
// returned stop function is idempotent and cascades to such children.
func Effect[T any](rs *ReactiveSystem, fn func(prev T) T, initial ...T) (stop func()) {
	var acc T
	if len(initial) > 0 {
		acc = initial[0]
	}

	e := newEffect(rs, nil)
	e.run = func() {
		acc = fn(acc)
	}

	if parent := rs.activeEffect; parent != nil {
		parent.children = append(parent.children, e)
	}
	e.invoke()

	return e.dispose
}
