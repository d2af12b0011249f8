package services

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"tower-progression-system/models"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// AIPowerupsPerLevel bounds the power-up points an AI card may allocate:
// (level-1) * AIPowerupsPerLevel across all four edges.
const AIPowerupsPerLevel = 2

// MaxAICardLevel caps the fallback difficulty curve so long-run floors never
// outrun attainable player power.
const MaxAICardLevel = 60

// PowerUpAllocation distributes bonus power points across a card's four edges.
type PowerUpAllocation struct {
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}

func (p PowerUpAllocation) Total() int {
	return p.Top + p.Right + p.Bottom + p.Left
}

// GeneratedFloorCard is one card of a generated opponent deck, before it is
// turned into persisted card instances.
type GeneratedFloorCard struct {
	CardName string            `json:"card_name"`
	Level    int               `json:"level"`
	PowerUps PowerUpAllocation `json:"power_ups"`
}

// GeneratedFloorDeck is the transient output of a floor generator, validated
// before persistence.
type GeneratedFloorDeck struct {
	FloorNumber int                  `json:"floor_number"`
	FloorName   string               `json:"floor_name"`
	DeckName    string               `json:"deck_name"`
	Cards       []GeneratedFloorCard `json:"cards"`
}

// FloorGenerator produces opponent decks for a contiguous run of floors.
// Callers never need to know whether the oracle or the fallback produced the
// result.
type FloorGenerator interface {
	GenerateFloors(ctx context.Context, startFloor, count int) ([]GeneratedFloorDeck, error)
}

// TargetAverageLevel is the difficulty curve for generated floors: flatter at
// low floors, steepening after floor 100 and again after 200. Continuous at
// the breakpoints (10 at floor 100, 25 at floor 200).
func TargetAverageLevel(floor int) float64 {
	var level float64
	switch {
	case floor <= 100:
		level = 1 + float64(floor)*0.09
	case floor <= 200:
		level = 10 + float64(floor-100)*0.15
	default:
		level = 25 + float64(floor-200)*0.2
	}
	return math.Min(level, MaxAICardLevel)
}

// FallbackFloorGenerator is the deterministic constraint-satisfying generator
// used when the content oracle is unavailable or its output is unusable.
type FallbackFloorGenerator struct {
	catalog *CardCatalog
	rng     *rand.Rand
}

// NewFallbackFloorGenerator seeds the generator explicitly so a given seed
// always synthesizes the same decks.
func NewFallbackFloorGenerator(catalog *CardCatalog, seed int64) *FallbackFloorGenerator {
	return &FallbackFloorGenerator{
		catalog: catalog,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

var floorNameAdjectives = []string{
	"gilded", "shattered", "silent", "burning", "frozen",
	"howling", "sunken", "veiled", "iron", "crimson",
}

var floorNameNouns = []string{
	"bastion", "gallery", "rampart", "sanctum", "spire",
	"causeway", "vault", "atrium", "parapet", "crucible",
}

var titleCaser = cases.Title(language.English)

func (g *FallbackFloorGenerator) GenerateFloors(_ context.Context, startFloor, count int) ([]GeneratedFloorDeck, error) {
	pools, err := g.catalog.CardsByRarity()
	if err != nil {
		return nil, err
	}

	decks := make([]GeneratedFloorDeck, 0, count)
	for floor := startFloor; floor < startFloor+count; floor++ {
		deck, err := g.buildDeck(floor, pools)
		if err != nil {
			return nil, fmt.Errorf("fallback generation failed at floor %d: %w", floor, err)
		}
		decks = append(decks, deck)
	}
	return decks, nil
}

func (g *FallbackFloorGenerator) buildDeck(floor int, pools map[models.CardRarity][]models.Card) (GeneratedFloorDeck, error) {
	target := TargetAverageLevel(floor)
	coreLevel := int(math.Max(1, math.Round(target)))
	fillerLevel := coreLevel - 1
	if fillerLevel < 1 {
		fillerLevel = 1
	}

	legendary := g.shuffled(pools[models.RarityLegendary])
	epic := g.shuffled(pools[models.RarityEpic])
	rare := g.shuffled(pools[models.RarityRare])
	filler := g.shuffled(append(append([]models.Card{}, pools[models.RarityCommon]...), pools[models.RarityUncommon]...))

	copies := make(map[string]int)
	cards := make([]GeneratedFloorCard, 0, DeckSize)

	take := func(pool []models.Card, want, runningCap, level int) {
		taken := 0
		for _, card := range pool {
			if taken >= want || len(cards) >= runningCap || len(cards) >= DeckSize {
				return
			}
			if copies[card.Name] >= AIDuplicateCap {
				continue
			}
			copies[card.Name]++
			cards = append(cards, g.makeCard(card.Name, level))
			taken++
		}
	}

	// Greedy top-down fill: legendaries first, running totals keep the top
	// rarities from crowding out the filler gradient.
	take(legendary, AILegendaryCap, DeckSize, coreLevel)
	take(epic, AIEpicCap, AIEpicRunningCap, coreLevel)
	take(rare, AIRareCap, AIRareRunningCap, coreLevel)

	// Common/uncommon filler sits one level below target to preserve a power
	// gradient inside the deck. Loop until full since the duplicate cap allows
	// several passes over the pool.
	for len(cards) < DeckSize {
		before := len(cards)
		take(filler, DeckSize-len(cards), DeckSize, fillerLevel)
		if len(cards) == before {
			return GeneratedFloorDeck{}, fmt.Errorf("catalogue too small: only %d of %d cards placed", len(cards), DeckSize)
		}
	}

	name := titleCaser.String(fmt.Sprintf("%s %s",
		floorNameAdjectives[g.rng.Intn(len(floorNameAdjectives))],
		floorNameNouns[g.rng.Intn(len(floorNameNouns))],
	))

	return GeneratedFloorDeck{
		FloorNumber: floor,
		FloorName:   fmt.Sprintf("%s (Floor %d)", name, floor),
		DeckName:    fmt.Sprintf("%s Garrison", name),
		Cards:       cards,
	}, nil
}

func (g *FallbackFloorGenerator) makeCard(name string, level int) GeneratedFloorCard {
	return GeneratedFloorCard{
		CardName: name,
		Level:    level,
		PowerUps: g.allocatePowerUps(level),
	}
}

// allocatePowerUps spends (level-1)*AIPowerupsPerLevel points across the four
// edges using one of three strategies. The strategy choice is cosmetic
// variety, not a balance lever.
func (g *FallbackFloorGenerator) allocatePowerUps(level int) PowerUpAllocation {
	points := (level - 1) * AIPowerupsPerLevel
	if points <= 0 {
		return PowerUpAllocation{}
	}

	edges := [4]int{}
	switch g.rng.Intn(3) {
	case 0:
		// Concentrate on two distinct edges.
		first := g.rng.Intn(4)
		second := (first + 1 + g.rng.Intn(3)) % 4
		edges[first] = points / 2
		edges[second] = points - points/2
	case 1:
		// Even split, remainder to random edges.
		for i := range edges {
			edges[i] = points / 4
		}
		for i := 0; i < points%4; i++ {
			edges[g.rng.Intn(4)]++
		}
	default:
		// Fully random.
		for i := 0; i < points; i++ {
			edges[g.rng.Intn(4)]++
		}
	}

	return PowerUpAllocation{Top: edges[0], Right: edges[1], Bottom: edges[2], Left: edges[3]}
}

// shuffled returns a Fisher–Yates shuffled copy of the pool.
func (g *FallbackFloorGenerator) shuffled(pool []models.Card) []models.Card {
	out := make([]models.Card, len(pool))
	copy(out, pool)
	for i := len(out) - 1; i > 0; i-- {
		j := g.rng.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}
