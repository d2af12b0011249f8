package models

import (
	"time"

	"gorm.io/gorm"
)

// Player is the local snapshot of a user plus the economy columns the tower
// engine mutates (currency balances and tower progress). Identity fields are
// populated by the profile sync worker; balances and CurrentFloor are owned
// here and never synced.
type Player struct {
	ID             string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ExternalUserID string `gorm:"uniqueIndex;not null" json:"external_user_id"` // profile service UUID
	Username       string `gorm:"index" json:"username"`

	// System accounts own AI opponent decks and never play.
	IsSystem bool `gorm:"default:false;index" json:"is_system"`

	// Tower progress. 1-based; always points at an existing active floor or
	// max+1 while generation catches up.
	CurrentFloor int `json:"current_floor" gorm:"default:1"`

	// Currency balances (additive only from the tower engine's side).
	Gems          int64 `json:"gems" gorm:"default:0"`
	Packs         int64 `json:"packs" gorm:"default:0"`
	CardFragments int64 `json:"card_fragments" gorm:"default:0"`

	LastFloorClearedAt *time.Time `json:"last_floor_cleared_at,omitempty"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
