// services/scheduler.go
package services

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartLookaheadScheduler runs the daily catalogue check: if the furthest
// player is inside the lookahead window of the generated frontier, a
// generation run is enqueued. This is the periodic-job entry point into the
// tower engine; the worker owns the actual run.
func (s *FloorGenerationService) StartLookaheadScheduler(requester GenerationRequester) {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(func() {
			highest, err := s.Progress.HighestPlayerFloor()
			if err != nil {
				log.Printf("[Scheduler] DB error reading player frontier: %v", err)
				return
			}
			maxFloor, err := s.Progress.MaxFloorNumber()
			if err != nil {
				log.Printf("[Scheduler] DB error reading floor frontier: %v", err)
				return
			}

			if maxFloor == 0 || ShouldTriggerGeneration(highest, maxFloor) {
				if requester.RequestGeneration("daily lookahead check") {
					log.Printf("✅ Daily lookahead: generation enqueued (player frontier %d, floors up to %d)", highest, maxFloor)
				}
			}
		}),
	)
}
