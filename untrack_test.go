package ripple_test

import (
	"testing"

	"github.com/ripplefn/ripple"
	"github.com/stretchr/testify/assert"
)

// should not subscribe to reads inside Untracked
func TestUntrackedReadsDoNotSubscribe(t *testing.T) {
	rs := ripple.NewReactiveSystem()
	a := ripple.Signal(rs, 1)
	b := ripple.Signal(rs, 10)

	seen := []int{}
	ripple.Effect(rs, func(prev int) int {
		bV := ripple.Untracked(rs, func() int {
			return b.Value()
		})
		seen = append(seen, a.Value()+bV)
		return prev
	})

	assert.Equal(t, []int{11}, seen)
	b.SetValue(20)
	assert.Equal(t, []int{11}, seen)
	a.SetValue(2)
	assert.Equal(t, []int{11, 22}, seen)
}

// should work for computeds too
func TestUntrackedComputedRead(t *testing.T) {
	rs := ripple.NewReactiveSystem()
	a := ripple.Signal(rs, 1)
	double := ripple.Computed(rs, func(oldValue int) int {
		return a.Value() * 2
	})

	runs := 0
	ripple.Effect(rs, func(prev int) int {
		runs++
		ripple.Untracked(rs, func() int {
			return double.Value()
		})
		return prev
	})

	assert.Equal(t, 1, runs)
	a.SetValue(2)
	assert.Equal(t, 1, runs)
}

// should restore tracking when the untracked function panics
func TestUntrackedRestoresOnPanic(t *testing.T) {
	rs := ripple.NewReactiveSystem()
	a := ripple.Signal(rs, 1)

	runs := 0
	ripple.Effect(rs, func(prev int) int {
		runs++
		if a.Value() == 0 {
			return prev
		}
		func() {
			defer func() { recover() }()
			ripple.Untracked(rs, func() int {
				panic("boom")
			})
		}()
		// tracking must be active again here
		a.Value()
		return prev
	})

	assert.Equal(t, 1, runs)
	a.SetValue(2)
	assert.Equal(t, 2, runs)
}

// should nest pause and resume
func TestPauseResumeNesting(t *testing.T) {
	rs := ripple.NewReactiveSystem()
	a := ripple.Signal(rs, 1)
	b := ripple.Signal(rs, 1)

	runs := 0
	ripple.Effect(rs, func(prev int) int {
		runs++
		rs.PauseTracking()
		rs.PauseTracking()
		b.Value()
		rs.ResumeTracking()
		b.Value()
		rs.ResumeTracking()
		a.Value()
		return prev
	})

	assert.Equal(t, 1, runs)
	b.SetValue(2)
	assert.Equal(t, 1, runs)
	a.SetValue(2)
	assert.Equal(t, 2, runs)
}
