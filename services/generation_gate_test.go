package services

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerationGateSingleFlight(t *testing.T) {
	gate := NewGenerationGate()

	assert.False(t, gate.InFlight())
	assert.True(t, gate.TryAcquire())
	assert.True(t, gate.InFlight())
	assert.False(t, gate.TryAcquire())

	gate.Release()
	assert.False(t, gate.InFlight())
	assert.True(t, gate.TryAcquire())
	gate.Release()
}

func TestGenerationGateConcurrentAcquire(t *testing.T) {
	gate := NewGenerationGate()

	var wg sync.WaitGroup
	var winners int32
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if gate.TryAcquire() {
				atomic.AddInt32(&winners, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners)
}

func TestShouldTriggerGeneration(t *testing.T) {
	// Trigger when fewer than GenerationLookahead floors remain ahead.
	assert.True(t, ShouldTriggerGeneration(95, 100))
	assert.True(t, ShouldTriggerGeneration(91, 100))
	assert.True(t, ShouldTriggerGeneration(100, 100))
	assert.True(t, ShouldTriggerGeneration(101, 100))

	assert.False(t, ShouldTriggerGeneration(90, 100))
	assert.False(t, ShouldTriggerGeneration(1, 100))
	assert.False(t, ShouldTriggerGeneration(50, 500))
}
