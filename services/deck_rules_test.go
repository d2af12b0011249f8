package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"tower-progression-system/models"
)

const testOwnerID = "user-1"

func testDeck() *models.Deck {
	return &models.Deck{ID: "deck-1", OwnerID: testOwnerID, Name: "Main"}
}

// buildDeckCards produces n deck cards with distinct common card names.
func buildDeckCards(n int) []models.DeckCard {
	cards := make([]models.DeckCard, 0, n)
	for i := 0; i < n; i++ {
		cards = append(cards, deckCard(fmt.Sprintf("Common %d", i), models.RarityCommon))
	}
	return cards
}

func deckCard(name string, rarity models.CardRarity) models.DeckCard {
	return models.DeckCard{
		ID: "dc-" + name,
		CardInstance: &models.CardInstance{
			Card: &models.Card{Name: name, Rarity: rarity},
		},
	}
}

func TestValidatePlayerDeckAccepts(t *testing.T) {
	cards := buildDeckCards(17)
	cards = append(cards,
		deckCard("Dragon", models.RarityLegendary),
		deckCard("Dragon2", models.RarityLegendary),
		deckCard("Knight", models.RarityRare),
	)
	assert.NoError(t, ValidatePlayerDeck(testDeck(), cards, testOwnerID))
}

func TestValidatePlayerDeckRejectsAIDeck(t *testing.T) {
	deck := testDeck()
	deck.IsAI = true
	err := ValidatePlayerDeck(deck, buildDeckCards(DeckSize), testOwnerID)
	assert.ErrorIs(t, err, ErrDeckIsAIOwned)
}

func TestValidatePlayerDeckRejectsForeignDeck(t *testing.T) {
	err := ValidatePlayerDeck(testDeck(), buildDeckCards(DeckSize), "someone-else")
	assert.ErrorIs(t, err, ErrDeckNotOwned)
}

func TestValidatePlayerDeckRejectsWrongSize(t *testing.T) {
	for _, n := range []int{0, 19, 21} {
		err := ValidatePlayerDeck(testDeck(), buildDeckCards(n), testOwnerID)
		assert.ErrorIs(t, err, ErrDeckWrongSize, "size %d", n)
	}
}

func TestValidatePlayerDeckRejectsTooManyLegendaries(t *testing.T) {
	cards := buildDeckCards(17)
	cards = append(cards,
		deckCard("L1", models.RarityLegendary),
		deckCard("L2", models.RarityLegendary),
		deckCard("L3", models.RarityLegendary),
	)
	err := ValidatePlayerDeck(testDeck(), cards, testOwnerID)
	assert.ErrorIs(t, err, ErrDeckTooManyLegendaries)
}

func TestValidatePlayerDeckRejectsTooManyDuplicates(t *testing.T) {
	cards := buildDeckCards(17)
	cards = append(cards,
		deckCard("Goblin", models.RarityCommon),
		deckCard("Goblin", models.RarityCommon),
		deckCard("Goblin", models.RarityCommon),
	)
	err := ValidatePlayerDeck(testDeck(), cards, testOwnerID)
	assert.ErrorIs(t, err, ErrDeckTooManyDuplicates)
}

func TestValidatePlayerDeckLegendaryCapBeforeDuplicateCap(t *testing.T) {
	// A deck violating both caps reports the legendary violation.
	cards := buildDeckCards(14)
	for i := 0; i < 3; i++ {
		cards = append(cards, deckCard("L", models.RarityLegendary))
		cards = append(cards, deckCard("Goblin", models.RarityCommon))
	}
	err := ValidatePlayerDeck(testDeck(), cards, testOwnerID)
	assert.ErrorIs(t, err, ErrDeckTooManyLegendaries)
}
