package contentstore_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tendant/roastery-portal/pkg/contentstore"
	"github.com/tendant/roastery-portal/pkg/contentstore/clocktest"
)

func TestAutoSaver(t *testing.T) {
	tests := []struct {
		name  string
		steps func(a *contentstore.AutoSaver, c *clocktest.Clock)
		runs  int32
	}{
		{
			name:  "idle never runs",
			steps: func(a *contentstore.AutoSaver, c *clocktest.Clock) { c.Advance(time.Hour) },
		},
		{
			name: "single arm runs after delay",
			steps: func(a *contentstore.AutoSaver, c *clocktest.Clock) {
				a.Arm()
				c.Advance(10 * time.Second)
			},
			runs: 1,
		},
		{
			name: "rearm pushes deadline",
			steps: func(a *contentstore.AutoSaver, c *clocktest.Clock) {
				a.Arm()
				c.Advance(9 * time.Second)
				a.Arm()
				c.Advance(9 * time.Second)
			},
		},
		{
			name: "cancel drops pending run",
			steps: func(a *contentstore.AutoSaver, c *clocktest.Clock) {
				a.Arm()
				a.Cancel()
				c.Advance(time.Minute)
			},
		},
		{
			name: "arm after fire schedules again",
			steps: func(a *contentstore.AutoSaver, c *clocktest.Clock) {
				a.Arm()
				c.Advance(10 * time.Second)
				a.Arm()
				c.Advance(10 * time.Second)
			},
			runs: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := clocktest.New(epoch)
			var runs atomic.Int32
			a := contentstore.NewAutoSaver(clock, 10*time.Second, func() { runs.Add(1) })

			tt.steps(a, clock)
			assert.Equal(t, tt.runs, runs.Load())
		})
	}
}

func TestAutoSaver_PendingAndCancel(t *testing.T) {
	clock := clocktest.New(epoch)
	a := contentstore.NewAutoSaver(clock, time.Second, func() {})

	assert.False(t, a.Pending())
	assert.False(t, a.Cancel())

	a.Arm()
	a.Arm()
	assert.True(t, a.Pending())
	assert.Equal(t, 1, clock.Pending(), "re-arming stops the previous timer")

	assert.True(t, a.Cancel())
	assert.False(t, a.Pending())
	assert.Equal(t, time.Second, a.Delay())
}

func TestAutoSaver_SystemClock(t *testing.T) {
	done := make(chan struct{})
	a := contentstore.NewAutoSaver(nil, 10*time.Millisecond, func() { close(done) })
	a.Arm()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("auto-save did not fire")
	}
	assert.False(t, a.Pending())
}
