package services

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
)

// ProgressEvent is the SSE payload pushed whenever the player's tower state
// changes.
type ProgressEvent struct {
	CurrentFloor  int        `json:"current_floor"`
	Gems          int64      `json:"gems"`
	Packs         int64      `json:"packs"`
	CardFragments int64      `json:"card_fragments"`
	MaxFloor      int        `json:"max_floor"`
	ClearedAt     *time.Time `json:"last_floor_cleared_at,omitempty"`
}

// StreamProgressSSE streams real-time tower progress updates for the
// authenticated user. A new event is emitted only when the snapshot changes.
func (s *TowerProgressService) StreamProgressSSE(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	// SSE headers
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // nginx

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()

		var lastPayload []byte

		if _, err := s.EnsurePlayer(userID); err != nil {
			log.Printf("SSE init error for user %s: %v", userID, err)
			return
		}

		// Initial keepalive (comment event)
		w.WriteString(":\n\n")
		w.Flush()

		for {
			select {
			case <-ticker.C:
				player, err := s.GetPlayer(userID)
				if err != nil {
					log.Printf("SSE query error for user %s: %v", userID, err)
					continue
				}
				maxFloor, err := s.MaxFloorNumber()
				if err != nil {
					log.Printf("SSE query error for user %s: %v", userID, err)
					continue
				}

				event := ProgressEvent{
					CurrentFloor:  player.CurrentFloor,
					Gems:          player.Gems,
					Packs:         player.Packs,
					CardFragments: player.CardFragments,
					MaxFloor:      maxFloor,
					ClearedAt:     player.LastFloorClearedAt,
				}
				payload, _ := json.Marshal(event)
				if string(payload) == string(lastPayload) {
					continue
				}
				lastPayload = payload

				fmt.Fprintf(w, "event: progress\ndata: %s\n\n", payload)

				if err := w.Flush(); err != nil {
					// Client disconnected
					return
				}

			case <-c.Context().Done():
				// Client closed connection
				return
			}
		}
	})

	return nil
}
