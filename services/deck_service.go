package services

import (
	"errors"
	"fmt"

	"tower-progression-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeckService assembles and validates the 20 card-instance decks handed to
// the rules engine, and materializes generated AI decks.
type DeckService struct {
	DB *gorm.DB
}

func NewDeckService(db *gorm.DB) *DeckService {
	return &DeckService{DB: db}
}

// GetDeckWithCards loads a deck and its ordered card instances with catalogue
// cards preloaded.
func (s *DeckService) GetDeckWithCards(deckID string) (*models.Deck, []models.DeckCard, error) {
	var deck models.Deck
	if err := s.DB.Where("id = ?", deckID).First(&deck).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("%w: %s", ErrDeckNotFound, deckID)
		}
		return nil, nil, err
	}

	var cards []models.DeckCard
	if err := s.DB.Preload("CardInstance.Card").
		Where("deck_id = ?", deck.ID).
		Order("position ASC").
		Find(&cards).Error; err != nil {
		return nil, nil, err
	}
	return &deck, cards, nil
}

// ValidateUserDeck loads a deck and checks it against the player deck rules
// on behalf of the requester.
func (s *DeckService) ValidateUserDeck(deckID, requesterID string) (*models.Deck, []models.DeckCard, error) {
	deck, cards, err := s.GetDeckWithCards(deckID)
	if err != nil {
		return nil, nil, err
	}
	if err := ValidatePlayerDeck(deck, cards, requesterID); err != nil {
		return nil, nil, err
	}
	return deck, cards, nil
}

// CardInstanceIDs flattens deck cards into the instance id list the rules
// engine expects.
func CardInstanceIDs(cards []models.DeckCard) []string {
	ids := make([]string, 0, len(cards))
	for _, dc := range cards {
		ids = append(ids, dc.CardInstanceID)
	}
	return ids
}

// CreateAICardCopies materializes a generated floor deck into persisted card
// instances and a deck owned by the system account, on the given transaction.
// Returns the created deck and its average card level.
func (s *DeckService) CreateAICardCopies(tx *gorm.DB, gen GeneratedFloorDeck, byName map[string]models.Card, systemAccountID string) (*models.Deck, float64, error) {
	deck := &models.Deck{
		ID:      uuid.NewString(),
		Name:    gen.DeckName,
		OwnerID: systemAccountID,
		IsAI:    true,
	}
	if err := tx.Create(deck).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to create AI deck: %w", err)
	}

	levelSum := 0
	for i, genCard := range gen.Cards {
		card, ok := byName[genCard.CardName]
		if !ok {
			return nil, 0, fmt.Errorf("generated deck references unknown card %q", genCard.CardName)
		}
		instance := models.CardInstance{
			ID:            uuid.NewString(),
			CardID:        card.ID,
			OwnerID:       systemAccountID,
			Level:         genCard.Level,
			PowerUpTop:    genCard.PowerUps.Top,
			PowerUpRight:  genCard.PowerUps.Right,
			PowerUpBottom: genCard.PowerUps.Bottom,
			PowerUpLeft:   genCard.PowerUps.Left,
		}
		if err := tx.Create(&instance).Error; err != nil {
			return nil, 0, fmt.Errorf("failed to create AI card instance: %w", err)
		}
		if err := tx.Create(&models.DeckCard{
			ID:             uuid.NewString(),
			DeckID:         deck.ID,
			CardInstanceID: instance.ID,
			Position:       i,
		}).Error; err != nil {
			return nil, 0, fmt.Errorf("failed to attach AI card to deck: %w", err)
		}
		levelSum += genCard.Level
	}

	average := 0.0
	if len(gen.Cards) > 0 {
		average = float64(levelSum) / float64(len(gen.Cards))
	}
	return deck, average, nil
}
