package boardclient

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncer_LastCallWins(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)

	var got atomic.Int32
	d.Do(func() { got.Store(1) })
	d.Do(func() { got.Store(2) })
	d.Do(func() { got.Store(3) })

	assert.Eventually(t, func() bool { return got.Load() == 3 },
		time.Second, 5*time.Millisecond)
}

func TestDebouncer_Stop(t *testing.T) {
	d := NewDebouncer(10 * time.Millisecond)

	var calls atomic.Int32
	d.Do(func() { calls.Add(1) })
	d.Stop()

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, calls.Load())
}
