package services

import "sync/atomic"

// GenerationLookahead is how close (in floors) a player's frontier may get to
// the highest generated floor before a generation run is triggered.
const GenerationLookahead = 10

// GenerationGate is the process-wide single-flight guard for floor generation.
// A run that finds the gate already held exits immediately without error:
// someone else is already handling it.
type GenerationGate struct {
	busy atomic.Bool
}

func NewGenerationGate() *GenerationGate {
	return &GenerationGate{}
}

// TryAcquire claims the gate. Returns false when a run is already in flight.
func (g *GenerationGate) TryAcquire() bool {
	return g.busy.CompareAndSwap(false, true)
}

func (g *GenerationGate) Release() {
	g.busy.Store(false)
}

// InFlight reports whether a generation run currently holds the gate.
func (g *GenerationGate) InFlight() bool {
	return g.busy.Load()
}

// ShouldTriggerGeneration reports whether a player reaching newFloor is inside
// the lookahead window of the generated frontier.
func ShouldTriggerGeneration(newFloor, maxFloor int) bool {
	return maxFloor-newFloor < GenerationLookahead
}
