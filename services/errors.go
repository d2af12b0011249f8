package services

import "errors"

// Validation errors — surfaced to the caller, never retried.
var (
	ErrInvalidFloor = errors.New("floor number must be a positive integer")
	ErrGameMismatch = errors.New("game record does not match the claimed completion")

	ErrDeckIsAIOwned          = errors.New("deck belongs to a system account")
	ErrDeckNotOwned           = errors.New("deck does not belong to the requester")
	ErrDeckWrongSize          = errors.New("deck must contain exactly 20 cards")
	ErrDeckTooManyLegendaries = errors.New("deck exceeds the legendary card limit")
	ErrDeckTooManyDuplicates  = errors.New("deck exceeds the duplicate card limit")
)

// Conflict: a stale completion attempt lost the row-lock race. The caller
// should refresh its state and decide whether to retry at the new floor.
var ErrStaleCompletion = errors.New("completion does not match the player's current floor")

// Not-found errors.
var (
	ErrPlayerNotFound = errors.New("player not found")
	ErrFloorNotFound  = errors.New("tower floor not found")
	ErrDeckNotFound   = errors.New("deck not found")
)

// ErrOracleUnusable is internal to the generation path: it routes control to
// the fallback generator and is never surfaced to a completion caller.
var ErrOracleUnusable = errors.New("content oracle produced no usable floors")
