package services

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tower-progression-system/models"
)

func testCardPools() map[models.CardRarity][]models.Card {
	pools := make(map[models.CardRarity][]models.Card)
	add := func(rarity models.CardRarity, count int) {
		for i := 0; i < count; i++ {
			pools[rarity] = append(pools[rarity], models.Card{
				Name:   fmt.Sprintf("%s-%d", rarity, i),
				Rarity: rarity,
			})
		}
	}
	add(models.RarityCommon, 12)
	add(models.RarityUncommon, 8)
	add(models.RarityRare, 8)
	add(models.RarityEpic, 8)
	add(models.RarityLegendary, 6)
	return pools
}

func TestFallbackBuildDeckSatisfiesAllCaps(t *testing.T) {
	g := NewFallbackFloorGenerator(nil, 42)
	pools := testCardPools()

	for _, floor := range []int{1, 10, 55, 100, 150, 250, 999} {
		deck, err := g.buildDeck(floor, pools)
		require.NoError(t, err, "floor %d", floor)

		assert.Len(t, deck.Cards, DeckSize, "floor %d", floor)
		assert.Equal(t, floor, deck.FloorNumber)
		assert.NotEmpty(t, deck.FloorName)
		assert.NotEmpty(t, deck.DeckName)

		legendaries := 0
		copies := make(map[string]int)
		byRarity := make(map[models.CardRarity]int)
		rarityOf := make(map[string]models.CardRarity)
		for _, pool := range pools {
			for _, c := range pool {
				rarityOf[c.Name] = c.Rarity
			}
		}

		for _, card := range deck.Cards {
			copies[card.CardName]++
			rarity, known := rarityOf[card.CardName]
			require.True(t, known, "unknown card %q", card.CardName)
			byRarity[rarity]++
			if rarity == models.RarityLegendary {
				legendaries++
			}

			budget := (card.Level - 1) * AIPowerupsPerLevel
			assert.LessOrEqual(t, card.PowerUps.Total(), budget,
				"floor %d card %q over power-up budget", floor, card.CardName)
			assert.GreaterOrEqual(t, card.Level, 1)
			assert.LessOrEqual(t, card.Level, MaxAICardLevel+1)
		}

		assert.LessOrEqual(t, legendaries, AILegendaryCap, "floor %d", floor)
		assert.LessOrEqual(t, byRarity[models.RarityEpic], AIEpicCap, "floor %d", floor)
		assert.LessOrEqual(t, byRarity[models.RarityRare], AIRareCap, "floor %d", floor)
		for name, n := range copies {
			assert.LessOrEqual(t, n, AIDuplicateCap, "floor %d card %q", floor, name)
		}
	}
}

func TestFallbackBuildDeckIsSeedDeterministic(t *testing.T) {
	pools := testCardPools()

	first, err := NewFallbackFloorGenerator(nil, 7).buildDeck(33, pools)
	require.NoError(t, err)
	second, err := NewFallbackFloorGenerator(nil, 7).buildDeck(33, pools)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestFallbackBuildDeckFailsOnTinyCatalogue(t *testing.T) {
	g := NewFallbackFloorGenerator(nil, 1)
	pools := map[models.CardRarity][]models.Card{
		models.RarityCommon: {{Name: "only-card", Rarity: models.RarityCommon}},
	}
	// One name at 4 copies max can never fill 20 slots.
	_, err := g.buildDeck(5, pools)
	assert.Error(t, err)
}

func TestAllocatePowerUpsSpendsExactBudget(t *testing.T) {
	g := NewFallbackFloorGenerator(nil, 99)
	for level := 1; level <= MaxAICardLevel; level++ {
		for i := 0; i < 10; i++ {
			alloc := g.allocatePowerUps(level)
			assert.Equal(t, (level-1)*AIPowerupsPerLevel, alloc.Total(), "level %d", level)
			assert.GreaterOrEqual(t, alloc.Top, 0)
			assert.GreaterOrEqual(t, alloc.Right, 0)
			assert.GreaterOrEqual(t, alloc.Bottom, 0)
			assert.GreaterOrEqual(t, alloc.Left, 0)
		}
	}
}

func TestTargetAverageLevelCurve(t *testing.T) {
	assert.InDelta(t, 1.09, TargetAverageLevel(1), 1e-9)
	assert.InDelta(t, 10.0, TargetAverageLevel(100), 1e-9)
	assert.InDelta(t, 25.0, TargetAverageLevel(200), 1e-9)
	assert.InDelta(t, 45.0, TargetAverageLevel(300), 1e-9)

	// Continuous at the breakpoints.
	assert.InDelta(t, TargetAverageLevel(100), TargetAverageLevel(101)-0.15, 1e-9)
	assert.InDelta(t, TargetAverageLevel(200), TargetAverageLevel(201)-0.2, 1e-9)
}

func TestTargetAverageLevelIsMonotoneAndCapped(t *testing.T) {
	prev := 0.0
	for floor := 1; floor <= 1000; floor++ {
		level := TargetAverageLevel(floor)
		assert.GreaterOrEqual(t, level, prev, "floor %d", floor)
		assert.LessOrEqual(t, level, float64(MaxAICardLevel), "floor %d", floor)
		prev = level
	}
	assert.Equal(t, float64(MaxAICardLevel), TargetAverageLevel(10000))
}

func TestFallbackDeckTracksTargetAverage(t *testing.T) {
	g := NewFallbackFloorGenerator(nil, 3)
	pools := testCardPools()

	for _, floor := range []int{40, 120, 260} {
		deck, err := g.buildDeck(floor, pools)
		require.NoError(t, err)

		sum := 0
		for _, card := range deck.Cards {
			sum += card.Level
		}
		avg := float64(sum) / float64(len(deck.Cards))
		// Filler cards sit one level below the core, so the deck average
		// stays within a level of the curve.
		assert.LessOrEqual(t, math.Abs(avg-TargetAverageLevel(floor)), 1.5, "floor %d", floor)
	}
}
