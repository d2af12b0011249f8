// workers/floor_generation_worker.go
package workers

import (
	"context"
	"log"

	"tower-progression-system/services"
)

// FloorGenerationWorker serializes floor generation runs behind a small
// buffered queue. RequestGeneration never blocks the caller: when the queue
// is full a run is already pending and the request is coalesced into it.
type FloorGenerationWorker struct {
	svc   *services.FloorGenerationService
	queue chan string
}

func NewFloorGenerationWorker(svc *services.FloorGenerationService) *FloorGenerationWorker {
	return &FloorGenerationWorker{
		svc:   svc,
		queue: make(chan string, 4),
	}
}

// RequestGeneration enqueues a generation run. Returns false when the queue
// already holds pending work, which is fine: one pending run covers every
// coalesced request.
func (w *FloorGenerationWorker) RequestGeneration(reason string) bool {
	select {
	case w.queue <- reason:
		log.Printf("[FloorGen] 📨 Generation requested: %s", reason)
		return true
	default:
		log.Printf("[FloorGen] Generation request coalesced (queue full): %s", reason)
		return false
	}
}

func (w *FloorGenerationWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting Floor Generation Worker…")
	go w.run(ctx)
}

func (w *FloorGenerationWorker) run(ctx context.Context) {
	for {
		select {
		case reason := <-w.queue:
			if err := w.svc.ExtendCatalogue(ctx); err != nil {
				log.Printf("[FloorGen] ❌ Generation run failed (%s): %v", reason, err)
			}
		case <-ctx.Done():
			log.Println("⏹️ Floor Generation Worker stopped")
			return
		}
	}
}
