package ripple

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// ReactiveSystem owns all shared state of one reactive graph: the
// single-slot pointer to the effect currently executing and the pending
// queue used while batching. Every signal, computed and effect belongs
// to exactly one system. Propagation is fully synchronous and
// single-threaded; the system takes no locks.
type ReactiveSystem struct {
	activeEffect *effect
	pauseStack   []*effect

	batchDepth   int
	batchPending []*effect
	batchSeen    mapset.Set[*effect]
}

func NewReactiveSystem() *ReactiveSystem {
	return &ReactiveSystem{}
}

// StartBatch opens a batch scope. While at least one batch scope is
// open, signal writes enqueue affected effects instead of invoking
// them; the queue is flushed when the outermost scope ends.
func (rs *ReactiveSystem) StartBatch() {
	if rs.batchDepth == 0 {
		rs.batchSeen = mapset.NewThreadUnsafeSet[*effect]()
	}
	rs.batchDepth++
}

// EndBatch closes a batch scope. Closing the outermost scope runs each
// pending effect exactly once, in the order each effect was first
// enqueued, skipping effects disposed since enqueueing. Writes made by
// the effects themselves during the flush propagate immediately.
func (rs *ReactiveSystem) EndBatch() {
	rs.batchDepth--
	if rs.batchDepth != 0 {
		return
	}
	pending := rs.batchPending
	rs.batchPending = nil
	rs.batchSeen = nil
	for _, e := range pending {
		e.invoke()
	}
}

// Batch runs fn with batching active, flushing once on the way out.
// The flush runs in a defer, so effects that became pending before a
// panic in fn are still invoked while the panic unwinds; the panic
// then continues to the caller.
func (rs *ReactiveSystem) Batch(fn func()) {
	rs.StartBatch()
	defer rs.EndBatch()
	fn()
}

func (rs *ReactiveSystem) enqueue(e *effect) {
	if rs.batchSeen.Add(e) {
		rs.batchPending = append(rs.batchPending, e)
	}
}

// PauseTracking suspends dependency tracking until the matching
// ResumeTracking call. Reads in between never create subscriptions.
func (rs *ReactiveSystem) PauseTracking() {
	rs.pauseStack = append(rs.pauseStack, rs.activeEffect)
	rs.activeEffect = nil
}

func (rs *ReactiveSystem) ResumeTracking() {
	lastIdx := len(rs.pauseStack) - 1
	rs.activeEffect = rs.pauseStack[lastIdx]
	rs.pauseStack = rs.pauseStack[:lastIdx]
}

// Untracked runs fn with dependency tracking suspended and returns its
// result. Tracking is restored on every exit path, including a panic
// escaping fn.
func Untracked[T any](rs *ReactiveSystem, fn func() T) T {
	rs.PauseTracking()
	defer rs.ResumeTracking()
	return fn()
}
