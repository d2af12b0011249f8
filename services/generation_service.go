package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"tower-progression-system/models"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// GenerationBatchSize is how many floors one generation run appends past the
// current frontier.
const GenerationBatchSize = 10

// FloorGenerationService extends the floor catalogue: single-flight via the
// gate, oracle first, deterministic fallback when the oracle is unavailable
// or unusable, idempotent persistence per floor.
type FloorGenerationService struct {
	DB       *gorm.DB
	Progress *TowerProgressService
	Decks    *DeckService
	Catalog  *CardCatalog
	Gate     *GenerationGate

	Oracle   FloorGenerator // nil when the oracle key is unconfigured
	Fallback FloorGenerator
}

func NewFloorGenerationService(db *gorm.DB, progress *TowerProgressService, decks *DeckService, catalog *CardCatalog, oracle, fallback FloorGenerator) *FloorGenerationService {
	return &FloorGenerationService{
		DB:       db,
		Progress: progress,
		Decks:    decks,
		Catalog:  catalog,
		Gate:     NewGenerationGate(),
		Oracle:   oracle,
		Fallback: fallback,
	}
}

// ExtendCatalogue runs one generation pass. Finding the gate already held is
// not a fault: another run is handling it, so this call returns immediately.
func (s *FloorGenerationService) ExtendCatalogue(ctx context.Context) error {
	if !s.Gate.TryAcquire() {
		log.Println("[FloorGen] generation already in progress, skipping")
		return nil
	}
	defer s.Gate.Release()

	maxFloor, err := s.Progress.MaxFloorNumber()
	if err != nil {
		return fmt.Errorf("failed to read floor frontier: %w", err)
	}
	startFloor := maxFloor + 1

	decks := s.generate(ctx, startFloor, GenerationBatchSize)
	if len(decks) == 0 {
		return fmt.Errorf("no floors generated for %d..%d", startFloor, startFloor+GenerationBatchSize-1)
	}

	byName, err := s.Catalog.CardsByName()
	if err != nil {
		return err
	}

	created := 0
	for _, gen := range decks {
		inserted, err := s.persistFloor(gen, byName)
		if err != nil {
			log.Printf("[FloorGen] ❌ failed to persist floor %d: %v", gen.FloorNumber, err)
			continue
		}
		if inserted {
			created++
		}
	}
	log.Printf("[FloorGen] ✅ extended catalogue: %d new floor(s) from floor %d", created, startFloor)
	return nil
}

// generate tries the oracle and falls back to the deterministic generator.
// The caller never needs to know which path produced the result.
func (s *FloorGenerationService) generate(ctx context.Context, startFloor, count int) []GeneratedFloorDeck {
	if s.Oracle != nil {
		decks, err := s.Oracle.GenerateFloors(ctx, startFloor, count)
		if err == nil {
			return decks
		}
		log.Printf("[FloorGen] ⚠️ oracle unusable, using fallback generator: %v", err)
	}

	decks, err := s.Fallback.GenerateFloors(ctx, startFloor, count)
	if err != nil {
		log.Printf("[FloorGen] ❌ fallback generation failed: %v", err)
		return nil
	}
	return decks
}

// persistFloor writes one generated floor and its AI deck in a single
// transaction. A floor number that already exists is skipped silently before
// any deck rows are written, so duplicate triggers never produce duplicate
// floors or orphan decks.
func (s *FloorGenerationService) persistFloor(gen GeneratedFloorDeck, byName map[string]models.Card) (bool, error) {
	var count int64
	if err := s.DB.Model(&models.TowerFloor{}).
		Where("floor_number = ?", gen.FloorNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	errFloorTaken := fmt.Errorf("floor %d was created concurrently", gen.FloorNumber)

	inserted := false
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		deck, averageLevel, err := s.Decks.CreateAICardCopies(tx, gen, byName, AISystemAccountID)
		if err != nil {
			return err
		}

		floor := &models.TowerFloor{
			FloorNumber:      gen.FloorNumber,
			Name:             gen.FloorName,
			Slug:             slug.Make(fmt.Sprintf("%d-%s", gen.FloorNumber, gen.FloorName)),
			AIDeckID:         deck.ID,
			AverageCardLevel: averageLevel,
			IsActive:         true,
		}
		inserted, err = s.Progress.CreateFloor(tx, floor)
		if err != nil {
			return err
		}
		if !inserted {
			// Lost the race to another process: roll back the deck too.
			return errFloorTaken
		}
		return nil
	})
	if errors.Is(err, errFloorTaken) {
		// Same outcome as the pre-check: the floor exists, skip silently.
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return inserted, nil
}
