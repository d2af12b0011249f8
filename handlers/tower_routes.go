// handlers/tower_routes.go
package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"tower-progression-system/middleware"
	"tower-progression-system/services"
)

// statusForError maps service sentinels to HTTP status codes. Anything not in
// the taxonomy is a 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidFloor),
		errors.Is(err, services.ErrGameMismatch),
		errors.Is(err, services.ErrDeckIsAIOwned),
		errors.Is(err, services.ErrDeckNotOwned),
		errors.Is(err, services.ErrDeckWrongSize),
		errors.Is(err, services.ErrDeckTooManyLegendaries),
		errors.Is(err, services.ErrDeckTooManyDuplicates):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrStaleCompletion):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrPlayerNotFound),
		errors.Is(err, services.ErrFloorNotFound),
		errors.Is(err, services.ErrDeckNotFound):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

func errorJSON(c *fiber.Ctx, err error) error {
	status := statusForError(err)
	body := fiber.Map{"error": err.Error()}
	if status == fiber.StatusInternalServerError {
		// Don't leak internals on unexpected failures.
		body = fiber.Map{"error": "internal error"}
	}
	return c.Status(status).JSON(body)
}

func SetupTowerRoutes(
	app *fiber.App,
	tower *services.TowerService,
	progress *services.TowerProgressService,
	generation services.GenerationRequester,
	authClient *services.AuthServiceClient,
) {
	// 🔓 Public catalogue routes — no user context required.
	app.Get("/tower/floors", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "50"))
		offset, _ := strconv.Atoi(c.Query("offset", "0"))
		if limit < 1 || limit > 200 {
			limit = 50
		}
		if offset < 0 {
			offset = 0
		}

		floors, err := progress.ListFloors(limit, offset)
		if err != nil {
			return errorJSON(c, err)
		}

		out := make([]fiber.Map, 0, len(floors))
		for _, f := range floors {
			out = append(out, fiber.Map{
				"floor_number":       f.FloorNumber,
				"name":               f.Name,
				"slug":               f.Slug,
				"average_card_level": f.AverageCardLevel,
				"is_active":          f.IsActive,
			})
		}
		return c.JSON(fiber.Map{"floors": out})
	})

	app.Get("/tower/floors/:slug", func(c *fiber.Ctx) error {
		floor, err := progress.GetFloorBySlug(c.Params("slug"))
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(floor)
	})

	// 🔐 Secured routes — require user context forwarded by the gateway.
	securedGroup := app.Group("/s", middleware.UserContextMiddleware())

	securedGroup.Post("/tower/start", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		type Req struct {
			DeckID string `json:"deck_id"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		if req.DeckID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "deck_id is required",
			})
		}

		result, err := tower.StartTowerGame(c.UserContext(), userID, req.DeckID)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(result)
	})

	securedGroup.Post("/tower/complete", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		type Req struct {
			FloorNumber int    `json:"floor_number"`
			Won         bool   `json:"won"`
			GameID      string `json:"game_id"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		if req.GameID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "game_id is required",
			})
		}

		result, err := tower.ProcessTowerCompletion(c.UserContext(), userID, req.FloorNumber, req.Won, req.GameID)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(result)
	})

	securedGroup.Get("/tower/progress", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		player, err := progress.EnsurePlayer(userID)
		if err != nil {
			return errorJSON(c, err)
		}
		maxFloor, err := progress.MaxFloorNumber()
		if err != nil {
			return errorJSON(c, err)
		}

		return c.JSON(fiber.Map{
			"current_floor":         player.CurrentFloor,
			"max_floor":             maxFloor,
			"gems":                  player.Gems,
			"packs":                 player.Packs,
			"card_fragments":        player.CardFragments,
			"last_floor_cleared_at": player.LastFloorClearedAt,
		})
	})

	// SSE authenticates through query params: EventSource can't set headers.
	app.Get("/s/tower/progress/stream", middleware.SSEAuthMiddleware(authClient), progress.StreamProgressSSE)

	// Admin endpoints
	adminGroup := app.Group("/s/admin", middleware.UserContextMiddleware(), middleware.RequireRole("admin"))

	adminGroup.Post("/tower/generate", func(c *fiber.Ctx) error {
		enqueued := generation.RequestGeneration("admin request")
		return c.JSON(fiber.Map{
			"message":  "generation requested",
			"enqueued": enqueued,
		})
	})

	adminGroup.Patch("/tower/floors/:number/active", func(c *fiber.Ctx) error {
		floorNumber, err := strconv.Atoi(c.Params("number"))
		if err != nil || floorNumber < 1 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "floor number must be a positive integer",
			})
		}

		type Req struct {
			Active *bool `json:"active"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil || req.Active == nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "body must contain an 'active' boolean",
			})
		}

		floor, err := progress.SetFloorActive(floorNumber, *req.Active)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(floor)
	})

	adminGroup.Get("/tower/rewards/:floor", func(c *fiber.Ctx) error {
		floorNumber, err := strconv.Atoi(c.Params("floor"))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "floor number must be a positive integer",
			})
		}

		bundle, err := services.ComputeFloorRewards(floorNumber)
		if err != nil {
			return errorJSON(c, err)
		}
		return c.JSON(fiber.Map{
			"floor_number": floorNumber,
			"tier":         services.FloorRewardTier(floorNumber),
			"rewards":      bundle,
		})
	})
}
