package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"tower-progression-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AISystemAccountID is the external id of the system account that owns all AI
// opponent decks and card instances.
const AISystemAccountID = "tower-ai-system"

// GenerationRequester hands floor-generation work to the background worker.
// Enqueueing never blocks; a full queue reports false and the request is
// simply dropped (the next completion or the daily job will re-trigger).
type GenerationRequester interface {
	RequestGeneration(reason string) bool
}

// TowerService coordinates tower runs: starting floor games against the rules
// engine and settling completions with exactly-once reward application.
type TowerService struct {
	DB         *gorm.DB
	Progress   *TowerProgressService
	Decks      *DeckService
	Catalog    *CardCatalog
	Rules      RulesEngine
	Generation GenerationRequester
}

func NewTowerService(db *gorm.DB, progress *TowerProgressService, decks *DeckService, catalog *CardCatalog, rules RulesEngine, generation GenerationRequester) *TowerService {
	return &TowerService{
		DB:         db,
		Progress:   progress,
		Decks:      decks,
		Catalog:    catalog,
		Rules:      rules,
		Generation: generation,
	}
}

// AwardedCard describes a special card granted by a milestone floor.
type AwardedCard struct {
	CardInstanceID string `json:"card_instance_id"`
	CardName       string `json:"card_name"`
	Rarity         string `json:"rarity"`
	VariantArt     bool   `json:"variant_art"`
}

// TowerCompletionResult is the produced interface of a completion call.
type TowerCompletionResult struct {
	Success             bool          `json:"success"`
	Won                 bool          `json:"won"`
	FloorNumber         int           `json:"floor_number"`
	RewardsEarned       *RewardBundle `json:"rewards_earned,omitempty"`
	CardsAwarded        []AwardedCard `json:"cards_awarded,omitempty"`
	NewFloor            int           `json:"new_floor,omitempty"`
	GenerationTriggered bool          `json:"generation_triggered,omitempty"`
}

// TowerStartResult is the produced interface of a start call.
type TowerStartResult struct {
	GameID        string              `json:"game_id"`
	FloorNumber   int                 `json:"floor_number"`
	FloorName     string              `json:"floor_name"`
	AIDeckPreview []AIDeckCardPreview `json:"ai_deck_preview"`
}

// AIDeckCardPreview is the client-facing glimpse of the opponent deck.
type AIDeckCardPreview struct {
	CardName string `json:"card_name"`
	Rarity   string `json:"rarity"`
	Level    int    `json:"level"`
}

// ProcessTowerCompletion settles a tower attempt.
//
// A loss is a no-op: no state is touched, so retrying a loss is always safe.
// A win applies rewards exactly once per floor per user: the player row is
// locked for the duration of the transaction, and a completion whose claimed
// floor no longer matches current_floor is rejected as stale. All currency
// and card writes run on the same transactional handle that holds the lock.
func (s *TowerService) ProcessTowerCompletion(ctx context.Context, userID string, floorNumber int, won bool, gameID string) (*TowerCompletionResult, error) {
	if floorNumber < 1 {
		return nil, ErrInvalidFloor
	}

	if !won {
		return &TowerCompletionResult{Success: true, Won: false, FloorNumber: floorNumber}, nil
	}

	// Verify the originating game before entering the critical section; the
	// rules engine call must never run under the row lock.
	if gameID != "" {
		result, err := s.Rules.GetGameResult(ctx, gameID)
		if err != nil {
			return nil, fmt.Errorf("failed to verify game %s: %w", gameID, err)
		}
		if result.PlayerID != userID || result.FloorNumber != floorNumber {
			return nil, fmt.Errorf("%w (game %s: player=%s floor=%d)", ErrGameMismatch, gameID, result.PlayerID, result.FloorNumber)
		}
	}

	var completion *TowerCompletionResult
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		player, err := s.Progress.LockPlayer(tx, userID)
		if err != nil {
			return err
		}

		// Idempotency backstop: a concurrent completion that lost the lock
		// race observes the already-advanced floor and is rejected here.
		if player.CurrentFloor != floorNumber {
			return fmt.Errorf("%w (claimed %d, current %d)", ErrStaleCompletion, floorNumber, player.CurrentFloor)
		}

		bundle, err := ComputeFloorRewards(floorNumber)
		if err != nil {
			return err
		}

		awarded, err := s.grantMilestoneCards(tx, player.ExternalUserID, bundle)
		if err != nil {
			return err
		}

		player.Gems += bundle.Gems
		player.Packs += bundle.Packs
		player.CardFragments += bundle.CardFragments
		player.CurrentFloor = floorNumber + 1
		now := time.Now().UTC()
		player.LastFloorClearedAt = &now
		if err := tx.Save(player).Error; err != nil {
			return fmt.Errorf("failed to persist completion: %w", err)
		}

		if gameID != "" {
			// Mark the local session; the rules engine remains authoritative.
			if err := tx.Model(&models.TowerGameSession{}).
				Where("id = ?", gameID).
				Update("status", "won").Error; err != nil {
				return err
			}
		}

		completion = &TowerCompletionResult{
			Success:       true,
			Won:           true,
			FloorNumber:   floorNumber,
			RewardsEarned: &bundle,
			CardsAwarded:  awarded,
			NewFloor:      player.CurrentFloor,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Fire-and-forget: generation is never part of the caller's critical path
	// and its failure never fails a committed completion.
	maxFloor, err := s.Progress.MaxFloorNumber()
	if err != nil {
		log.Printf("[Tower] ⚠️ could not read max floor after completion: %v", err)
	} else if ShouldTriggerGeneration(completion.NewFloor, maxFloor) && s.Generation != nil {
		completion.GenerationTriggered = s.Generation.RequestGeneration(
			fmt.Sprintf("user %s reached floor %d (frontier %d)", userID, completion.NewFloor, maxFloor))
	}

	return completion, nil
}

// grantMilestoneCards creates the special card instances a milestone bundle
// carries, on the transactional handle holding the row lock.
func (s *TowerService) grantMilestoneCards(tx *gorm.DB, ownerID string, bundle RewardBundle) ([]AwardedCard, error) {
	type grant struct {
		rarity     models.CardRarity
		variantArt bool
		count      int
	}
	grants := []grant{
		{models.RarityRare, true, bundle.RareArtCards},
		{models.RarityLegendary, false, bundle.LegendaryCards},
		{models.RarityEpic, false, bundle.EpicCards},
	}

	var awarded []AwardedCard
	for _, g := range grants {
		for i := 0; i < g.count; i++ {
			card, err := s.Catalog.RandomCard(tx, g.rarity, g.variantArt)
			if err != nil {
				return nil, fmt.Errorf("failed to pick milestone card: %w", err)
			}
			instance := models.CardInstance{
				ID:      uuid.NewString(),
				CardID:  card.ID,
				OwnerID: ownerID,
				Level:   1,
			}
			if err := tx.Create(&instance).Error; err != nil {
				return nil, fmt.Errorf("failed to grant milestone card: %w", err)
			}
			awarded = append(awarded, AwardedCard{
				CardInstanceID: instance.ID,
				CardName:       card.Name,
				Rarity:         string(card.Rarity),
				VariantArt:     card.IsVariantArt,
			})
		}
	}
	return awarded, nil
}

// StartTowerGame validates the player's deck, loads the current floor's AI
// deck and asks the rules engine to initialize the board.
func (s *TowerService) StartTowerGame(ctx context.Context, userID, deckID string) (*TowerStartResult, error) {
	deck, playerCards, err := s.Decks.ValidateUserDeck(deckID, userID)
	if err != nil {
		return nil, err
	}

	player, err := s.Progress.EnsurePlayer(userID)
	if err != nil {
		return nil, err
	}

	floor, err := s.Progress.GetFloor(player.CurrentFloor)
	if err != nil {
		if errors.Is(err, ErrFloorNotFound) && s.Generation != nil {
			// The player is ahead of the generated frontier; kick generation
			// so the floor exists on the next attempt.
			s.Generation.RequestGeneration(fmt.Sprintf("user %s waiting on floor %d", userID, player.CurrentFloor))
		}
		return nil, err
	}
	if !floor.IsActive {
		return nil, fmt.Errorf("%w: floor %d is disabled", ErrFloorNotFound, floor.FloorNumber)
	}

	aiDeck, aiCards, err := s.Decks.GetDeckWithCards(floor.AIDeckID)
	if err != nil {
		return nil, fmt.Errorf("floor %d has no usable AI deck: %w", floor.FloorNumber, err)
	}

	state, err := s.Rules.InitializeGame(ctx, CardInstanceIDs(playerCards), CardInstanceIDs(aiCards), userID, AISystemAccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize game: %w", err)
	}

	session := models.TowerGameSession{
		ID:          state.GameID,
		PlayerID:    userID,
		OpponentID:  AISystemAccountID,
		DeckID:      deck.ID,
		AIDeckID:    aiDeck.ID,
		FloorNumber: floor.FloorNumber,
		Status:      "started",
	}
	if err := s.DB.Create(&session).Error; err != nil {
		return nil, fmt.Errorf("failed to record game session: %w", err)
	}

	preview := make([]AIDeckCardPreview, 0, len(aiCards))
	for _, dc := range aiCards {
		if dc.CardInstance == nil || dc.CardInstance.Card == nil {
			continue
		}
		preview = append(preview, AIDeckCardPreview{
			CardName: dc.CardInstance.Card.Name,
			Rarity:   string(dc.CardInstance.Card.Rarity),
			Level:    dc.CardInstance.Level,
		})
	}

	return &TowerStartResult{
		GameID:        state.GameID,
		FloorNumber:   floor.FloorNumber,
		FloorName:     floor.Name,
		AIDeckPreview: preview,
	}, nil
}
