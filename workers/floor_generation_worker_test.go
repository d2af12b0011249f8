package workers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestGenerationCoalescesWhenQueueFull(t *testing.T) {
	w := NewFloorGenerationWorker(nil)

	accepted := 0
	for i := 0; i < 10; i++ {
		if w.RequestGeneration("test") {
			accepted++
		}
	}

	assert.Equal(t, cap(w.queue), accepted)
	assert.False(t, w.RequestGeneration("one more"))
}
