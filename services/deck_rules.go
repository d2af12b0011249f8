package services

import (
	"fmt"

	"tower-progression-system/models"
)

// Deck-building caps. Player decks use the strict caps; AI-generated decks use
// the relaxed caps, enforced inside the floor generators rather than here.
const (
	DeckSize = 20

	PlayerLegendaryCap = 2
	PlayerDuplicateCap = 2

	AILegendaryCap = 4
	AIDuplicateCap = 4
	AIEpicCap      = 6
	AIRareCap      = 6

	// Running totals while greedily filling an AI deck from the top rarity down.
	AIEpicRunningCap = 10
	AIRareRunningCap = 16
)

// ValidatePlayerDeck checks an ordered list of deck card instances against the
// player deck-building rules, failing fast with the first violated rule.
// Card instances must have their catalogue Card preloaded.
func ValidatePlayerDeck(deck *models.Deck, cards []models.DeckCard, requesterID string) error {
	if deck.IsAI {
		return ErrDeckIsAIOwned
	}
	if deck.OwnerID != requesterID {
		return ErrDeckNotOwned
	}
	if len(cards) != DeckSize {
		return fmt.Errorf("%w (got %d)", ErrDeckWrongSize, len(cards))
	}

	legendaries := 0
	copies := make(map[string]int, len(cards))
	for _, dc := range cards {
		if dc.CardInstance == nil || dc.CardInstance.Card == nil {
			return fmt.Errorf("deck card %s has no catalogue card loaded", dc.ID)
		}
		card := dc.CardInstance.Card
		if card.Rarity == models.RarityLegendary {
			legendaries++
		}
		copies[card.Name]++
	}
	if legendaries > PlayerLegendaryCap {
		return fmt.Errorf("%w (got %d)", ErrDeckTooManyLegendaries, legendaries)
	}
	for _, dc := range cards {
		name := dc.CardInstance.Card.Name
		if copies[name] > PlayerDuplicateCap {
			return fmt.Errorf("%w (%q appears %d times)", ErrDeckTooManyDuplicates, name, copies[name])
		}
	}
	return nil
}
