package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClockMeasuresElapsedTime(t *testing.T) {
	clock := NewClock()
	clock.Start()
	time.Sleep(20 * time.Millisecond)
	clock.Update()

	// Generous upper bound, CI schedulers stall.
	assert.GreaterOrEqual(t, clock.Elapsed(), 0.02)
	assert.Less(t, clock.Elapsed(), 5.0)
}

func TestClockUpdateBeforeStartIsNoOp(t *testing.T) {
	clock := NewClock()
	clock.Update()
	assert.Zero(t, clock.Elapsed())
}

func TestClockStartResetsElapsed(t *testing.T) {
	clock := NewClock()
	clock.Start()
	time.Sleep(5 * time.Millisecond)
	clock.Update()
	assert.Greater(t, clock.Elapsed(), 0.0)

	clock.Start()
	assert.Zero(t, clock.Elapsed())
}

func TestClockStopFreezesElapsed(t *testing.T) {
	clock := NewClock()
	clock.Start()
	time.Sleep(5 * time.Millisecond)
	clock.Update()
	frozen := clock.Elapsed()

	clock.Stop()
	time.Sleep(5 * time.Millisecond)
	clock.Update()
	assert.Equal(t, frozen, clock.Elapsed())
}
