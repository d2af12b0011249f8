package services

import "math"

// Reward curve constants (tunable via config/env later)
const (
	BaseGemValue      = 100
	BaseFragmentValue = 10
	BandSize          = 10 // floors per economy band

	// Two independent curves: fragment inflation deliberately lags gems.
	GemGrowthRate      = 1.06
	FragmentGrowthRate = 1.03

	GemsPerPack = 100
)

// RewardTier classifies a floor by divisibility. Higher tiers always win.
type RewardTier string

const (
	TierS RewardTier = "S" // every 100th floor
	TierA RewardTier = "A" // every 50th
	TierB RewardTier = "B" // every 25th
	TierC RewardTier = "C" // every 10th
	TierD RewardTier = "D" // every 5th
	TierE RewardTier = "E" // everything else
)

var tierGemMultiplier = map[RewardTier]float64{
	TierE: 1.0,
	TierD: 1.25,
	TierC: 1.5,
	TierB: 2.0,
	TierA: 3.0,
	TierS: 5.0,
}

var tierFragmentMultiplier = map[RewardTier]float64{
	TierE: 1.0,
	TierD: 1.0,
	TierC: 1.5,
	TierB: 2.0,
	TierA: 2.5,
	TierS: 3.0,
}

// RewardBundle is the transient outcome of the floor reward formula. It is
// recomputed from the floor number every time and never persisted, so the
// formula stays the single source of truth.
type RewardBundle struct {
	Gems           int64 `json:"gems"`
	Packs          int64 `json:"packs"`
	CardFragments  int64 `json:"card_fragments"`
	RareArtCards   int   `json:"rare_art_cards"`
	LegendaryCards int   `json:"legendary_cards"`
	EpicCards      int   `json:"epic_cards"`
}

// FloorRewardTier picks the tier by strict divisibility precedence,
// most specific first.
func FloorRewardTier(floor int) RewardTier {
	switch {
	case floor%100 == 0:
		return TierS
	case floor%50 == 0:
		return TierA
	case floor%25 == 0:
		return TierB
	case floor%10 == 0:
		return TierC
	case floor%5 == 0:
		return TierD
	default:
		return TierE
	}
}

// ComputeFloorRewards is the economic contract the rest of the tower engine
// trusts: pure, deterministic, no I/O.
//
// band = (floor-1)/10 steps the economy up every 10 floors. The gem value
// converts to packs-then-remainder. Only the single highest milestone matching
// a floor applies, and every milestone adds a gem bonus proportional to the
// base gem value at that floor.
func ComputeFloorRewards(floor int) (RewardBundle, error) {
	if floor < 1 {
		return RewardBundle{}, ErrInvalidFloor
	}

	band := (floor - 1) / BandSize
	gemValue := math.Floor(BaseGemValue * math.Pow(GemGrowthRate, float64(band)))
	fragmentValue := math.Floor(BaseFragmentValue * math.Pow(FragmentGrowthRate, float64(band)))

	tier := FloorRewardTier(floor)
	totalGems := int64(gemValue * tierGemMultiplier[tier])
	fragments := int64(fragmentValue * tierFragmentMultiplier[tier])

	var bundle RewardBundle
	switch {
	case floor%100 == 0:
		bundle.RareArtCards = 1
		totalGems += int64(gemValue)
	case floor%50 == 0:
		bundle.LegendaryCards = 1
		totalGems += int64(gemValue) / 2
	case floor%25 == 0:
		bundle.EpicCards = 1
		totalGems += int64(gemValue) / 4
	case floor%10 == 0:
		fragments += int64(fragmentValue)
		totalGems += int64(gemValue) / 10
	}

	bundle.Packs = totalGems / GemsPerPack
	bundle.Gems = totalGems % GemsPerPack
	bundle.CardFragments = fragments
	return bundle, nil
}

// TotalGemValue flattens packs back into their gem value, used by tests and
// the reward preview endpoint to compare bundle magnitudes.
func (b RewardBundle) TotalGemValue() int64 {
	return b.Packs*GemsPerPack + b.Gems
}
