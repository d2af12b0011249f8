package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tower-progression-system/models"
)

func oracleTestCatalogue() map[string]models.Card {
	byName := map[string]models.Card{
		"Dragon": {Name: "Dragon", Rarity: models.RarityLegendary},
		"Wyvern": {Name: "Wyvern", Rarity: models.RarityLegendary},
		"Hydra":  {Name: "Hydra", Rarity: models.RarityLegendary},
		"Titan":  {Name: "Titan", Rarity: models.RarityLegendary},
		"Giant":  {Name: "Giant", Rarity: models.RarityLegendary},
	}
	for i := 0; i < 20; i++ {
		name := fmt.Sprintf("Soldier %d", i)
		byName[name] = models.Card{Name: name, Rarity: models.RarityCommon}
	}
	return byName
}

func oracleDeck(names []string, level int) GeneratedFloorDeck {
	deck := GeneratedFloorDeck{FloorNumber: 12, FloorName: "Test Floor", DeckName: "Test Garrison"}
	for _, name := range names {
		deck.Cards = append(deck.Cards, GeneratedFloorCard{CardName: name, Level: level})
	}
	return deck
}

func soldierNames(n int) []string {
	names := make([]string, 0, n)
	for i := 0; i < n; i++ {
		names = append(names, fmt.Sprintf("Soldier %d", i))
	}
	return names
}

func TestValidateGeneratedDeckAcceptsValidDeck(t *testing.T) {
	deck := oracleDeck(soldierNames(20), 3)
	validated, ok := ValidateGeneratedDeck(deck, oracleTestCatalogue())
	require.True(t, ok)
	assert.Len(t, validated.Cards, DeckSize)
	assert.Equal(t, 12, validated.FloorNumber)
}

func TestValidateGeneratedDeckDropsUnknownCards(t *testing.T) {
	names := soldierNames(19)
	names = append(names, "Made Up Card")
	deck := oracleDeck(names, 2)

	_, ok := ValidateGeneratedDeck(deck, oracleTestCatalogue())
	assert.False(t, ok, "deck short of 20 after dropping the unknown card")
}

func TestValidateGeneratedDeckRejectsInvalidFloorNumber(t *testing.T) {
	deck := oracleDeck(soldierNames(20), 2)
	deck.FloorNumber = 0
	_, ok := ValidateGeneratedDeck(deck, oracleTestCatalogue())
	assert.False(t, ok)
}

func TestValidateGeneratedDeckEnforcesLegendaryCap(t *testing.T) {
	names := append([]string{"Dragon", "Wyvern", "Hydra", "Titan", "Giant"}, soldierNames(15)...)
	deck := oracleDeck(names, 2)

	_, ok := ValidateGeneratedDeck(deck, oracleTestCatalogue())
	assert.False(t, ok, "fifth legendary dropped leaves 19 cards")
}

func TestValidateGeneratedDeckEnforcesDuplicateCap(t *testing.T) {
	names := make([]string, 0, 20)
	for i := 0; i < 5; i++ {
		names = append(names, "Soldier 0")
	}
	names = append(names, soldierNames(15)[1:]...)
	deck := oracleDeck(names, 2)

	_, ok := ValidateGeneratedDeck(deck, oracleTestCatalogue())
	assert.False(t, ok, "fifth copy dropped leaves the deck short")
}

func TestValidateGeneratedDeckNormalizesLevelAndPowerUps(t *testing.T) {
	deck := oracleDeck(soldierNames(20), 0)
	deck.Cards[0].PowerUps = PowerUpAllocation{Top: 3, Right: 3}

	validated, ok := ValidateGeneratedDeck(deck, oracleTestCatalogue())
	require.True(t, ok)
	assert.Equal(t, 1, validated.Cards[0].Level, "level floors at 1")
	assert.Equal(t, PowerUpAllocation{}, validated.Cards[0].PowerUps, "zero budget at level 1")
}

func TestClampPowerUpsWithinBudgetUntouched(t *testing.T) {
	alloc := PowerUpAllocation{Top: 2, Right: 2, Bottom: 1, Left: 1}
	assert.Equal(t, alloc, clampPowerUps(5, "x", 4, alloc))
}

func TestClampPowerUpsScalesProportionally(t *testing.T) {
	// Level 4 budget is 6; 12 allocated points scale down by half.
	alloc := PowerUpAllocation{Top: 8, Right: 4}
	scaled := clampPowerUps(5, "x", 4, alloc)
	assert.Equal(t, PowerUpAllocation{Top: 4, Right: 2}, scaled)
	assert.LessOrEqual(t, scaled.Total(), 6)
}

func TestClampPowerUpsZeroBudgetZeroes(t *testing.T) {
	alloc := PowerUpAllocation{Top: 5}
	assert.Equal(t, PowerUpAllocation{}, clampPowerUps(5, "x", 1, alloc))
}

func TestStripCodeFences(t *testing.T) {
	plain := `[{"floor_number": 1}]`
	assert.Equal(t, plain, stripCodeFences(plain))
	assert.Equal(t, plain, stripCodeFences("```json\n"+plain+"\n```"))
	assert.Equal(t, plain, stripCodeFences("```\n"+plain+"\n```"))
	assert.Equal(t, plain, stripCodeFences("  \n```json\n"+plain+"\n```\n  "))
}
