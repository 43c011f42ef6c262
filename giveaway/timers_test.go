package giveaway

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleFiresOnce(t *testing.T) {
	timers := NewTimers()
	var fired atomic.Int32

	timers.Schedule("g1", time.Now().Add(10*time.Millisecond), func() {
		fired.Add(1)
	})

	assert.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, timers.Len())
}

func TestScheduleSupersedesPriorTimer(t *testing.T) {
	timers := NewTimers()
	var first, second atomic.Int32

	timers.Schedule("g1", time.Now().Add(20*time.Millisecond), func() { first.Add(1) })
	timers.Schedule("g1", time.Now().Add(30*time.Millisecond), func() { second.Add(1) })

	require.Equal(t, 1, timers.Len())
	assert.Eventually(t, func() bool { return second.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(0), first.Load())
}

func TestCancelDisarms(t *testing.T) {
	timers := NewTimers()
	var fired atomic.Int32

	timers.Schedule("g1", time.Now().Add(20*time.Millisecond), func() { fired.Add(1) })
	timers.Cancel("g1")

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
	assert.Equal(t, 0, timers.Len())
}

func TestPastDeadlineFiresImmediately(t *testing.T) {
	timers := NewTimers()
	var fired atomic.Int32

	timers.Schedule("g1", time.Now().Add(-time.Minute), func() { fired.Add(1) })

	assert.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 5*time.Millisecond)
}
