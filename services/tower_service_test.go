package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRulesEngine returns canned results without any network.
type fakeRulesEngine struct {
	result *GameResult
	err    error
}

func (f *fakeRulesEngine) InitializeGame(_ context.Context, _, _ []string, playerID, opponentID string) (*GameState, error) {
	return &GameState{GameID: "game-1", PlayerID: playerID, OpponentID: opponentID}, f.err
}

func (f *fakeRulesEngine) GetGameResult(_ context.Context, gameID string) (*GameResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	r := *f.result
	r.GameID = gameID
	return &r, nil
}

func TestProcessTowerCompletionRejectsInvalidFloor(t *testing.T) {
	svc := NewTowerService(nil, nil, nil, nil, &fakeRulesEngine{}, nil)

	for _, floor := range []int{0, -1} {
		_, err := svc.ProcessTowerCompletion(context.Background(), "user-1", floor, true, "game-1")
		assert.ErrorIs(t, err, ErrInvalidFloor, "floor %d", floor)
	}
}

func TestProcessTowerCompletionLossIsNoOp(t *testing.T) {
	// DB and collaborators are nil: a loss must not touch any of them.
	svc := NewTowerService(nil, nil, nil, nil, &fakeRulesEngine{}, nil)

	result, err := svc.ProcessTowerCompletion(context.Background(), "user-1", 7, false, "game-1")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.False(t, result.Won)
	assert.Equal(t, 7, result.FloorNumber)
	assert.Nil(t, result.RewardsEarned)
	assert.Zero(t, result.NewFloor)
}

func TestProcessTowerCompletionRejectsForeignGame(t *testing.T) {
	rules := &fakeRulesEngine{result: &GameResult{
		PlayerID:    "someone-else",
		FloorNumber: 7,
		WinnerID:    "someone-else",
		Finished:    true,
	}}
	svc := NewTowerService(nil, nil, nil, nil, rules, nil)

	_, err := svc.ProcessTowerCompletion(context.Background(), "user-1", 7, true, "game-1")
	assert.ErrorIs(t, err, ErrGameMismatch)
}

func TestProcessTowerCompletionRejectsFloorMismatchWithGameRecord(t *testing.T) {
	rules := &fakeRulesEngine{result: &GameResult{
		PlayerID:    "user-1",
		FloorNumber: 6,
		WinnerID:    "user-1",
		Finished:    true,
	}}
	svc := NewTowerService(nil, nil, nil, nil, rules, nil)

	_, err := svc.ProcessTowerCompletion(context.Background(), "user-1", 7, true, "game-1")
	assert.ErrorIs(t, err, ErrGameMismatch)
}

func TestProcessTowerCompletionSurfacesRulesEngineFailure(t *testing.T) {
	rules := &fakeRulesEngine{err: errors.New("rules engine down")}
	svc := NewTowerService(nil, nil, nil, nil, rules, nil)

	_, err := svc.ProcessTowerCompletion(context.Background(), "user-1", 7, true, "game-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrGameMismatch)
}
