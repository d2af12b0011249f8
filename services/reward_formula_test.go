package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeFloorRewardsRejectsInvalidFloor(t *testing.T) {
	for _, floor := range []int{0, -1, -100} {
		_, err := ComputeFloorRewards(floor)
		assert.ErrorIs(t, err, ErrInvalidFloor, "floor %d", floor)
	}
}

func TestComputeFloorRewardsIsDeterministic(t *testing.T) {
	for _, floor := range []int{1, 9, 10, 25, 50, 100, 137, 250} {
		first, err := ComputeFloorRewards(floor)
		require.NoError(t, err)
		second, err := ComputeFloorRewards(floor)
		require.NoError(t, err)
		assert.Equal(t, first, second, "floor %d", floor)
	}
}

func TestComputeFloorRewardsFloorOne(t *testing.T) {
	bundle, err := ComputeFloorRewards(1)
	require.NoError(t, err)

	// Band 0, tier E: 100 gems converts to exactly one pack.
	assert.Equal(t, int64(1), bundle.Packs)
	assert.Equal(t, int64(0), bundle.Gems)
	assert.Equal(t, int64(10), bundle.CardFragments)
	assert.Zero(t, bundle.RareArtCards)
	assert.Zero(t, bundle.LegendaryCards)
	assert.Zero(t, bundle.EpicCards)
}

func TestFloorRewardTierPrecedence(t *testing.T) {
	cases := map[int]RewardTier{
		1:   TierE,
		4:   TierE,
		5:   TierD,
		10:  TierC,
		25:  TierB,
		37:  TierE,
		50:  TierA,
		75:  TierB,
		100: TierS,
		150: TierA,
		200: TierS,
		210: TierC,
	}
	for floor, want := range cases {
		assert.Equal(t, want, FloorRewardTier(floor), "floor %d", floor)
	}
}

func TestComputeFloorRewardsMilestonesAreExclusive(t *testing.T) {
	// Floor 100 qualifies for every milestone divisor but only the rare-art
	// grant applies.
	bundle, err := ComputeFloorRewards(100)
	require.NoError(t, err)
	assert.Equal(t, 1, bundle.RareArtCards)
	assert.Zero(t, bundle.LegendaryCards)
	assert.Zero(t, bundle.EpicCards)

	bundle, err = ComputeFloorRewards(50)
	require.NoError(t, err)
	assert.Equal(t, 1, bundle.LegendaryCards)
	assert.Zero(t, bundle.RareArtCards)
	assert.Zero(t, bundle.EpicCards)

	bundle, err = ComputeFloorRewards(25)
	require.NoError(t, err)
	assert.Equal(t, 1, bundle.EpicCards)
	assert.Zero(t, bundle.RareArtCards)
	assert.Zero(t, bundle.LegendaryCards)
}

func TestComputeFloorRewardsFragmentDoublingAtTierC(t *testing.T) {
	// Floor 10 sits in band 0: fragment value 10, tier C multiplier 1.5,
	// milestone doubles the base fragment value on top.
	bundle, err := ComputeFloorRewards(10)
	require.NoError(t, err)
	assert.Equal(t, int64(25), bundle.CardFragments)
}

func TestComputeFloorRewardsGemValueGrowsAcrossBands(t *testing.T) {
	// Band boundaries are at floor 10/11, 20/21, ... Compare tier-E floors
	// one band apart so the tier multiplier cancels out.
	var prev int64
	for _, floor := range []int{1, 11, 21, 31, 101, 201} {
		bundle, err := ComputeFloorRewards(floor)
		require.NoError(t, err)
		total := bundle.TotalGemValue()
		assert.Greater(t, total, prev, "floor %d", floor)
		prev = total
	}
}

func TestComputeFloorRewardsFragmentsGrowSlowerThanGems(t *testing.T) {
	early, err := ComputeFloorRewards(1)
	require.NoError(t, err)
	late, err := ComputeFloorRewards(201)
	require.NoError(t, err)

	gemGrowth := float64(late.TotalGemValue()) / float64(early.TotalGemValue())
	fragGrowth := float64(late.CardFragments) / float64(early.CardFragments)
	assert.Greater(t, gemGrowth, fragGrowth)
}

func TestComputeFloorRewardsPackConversion(t *testing.T) {
	for _, floor := range []int{1, 7, 42, 99, 100, 555} {
		bundle, err := ComputeFloorRewards(floor)
		require.NoError(t, err)
		assert.Less(t, bundle.Gems, int64(GemsPerPack), "floor %d", floor)
		assert.GreaterOrEqual(t, bundle.Gems, int64(0), "floor %d", floor)
	}
}
