package models

// TowerGameSession is the local record of a game started against the rules
// engine for a tower floor. The engine owns the authoritative result; this row
// ties a game id to the player and floor it was started for.
type TowerGameSession struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"` // rules engine game id
	PlayerID    string `gorm:"not null;index" json:"player_id"`
	OpponentID  string `gorm:"not null" json:"opponent_id"`
	DeckID      string `gorm:"type:uuid;not null" json:"deck_id"`
	AIDeckID    string `gorm:"type:uuid;not null" json:"ai_deck_id"`
	FloorNumber int    `gorm:"not null;index" json:"floor_number"`

	Status string `json:"status" gorm:"type:varchar(16);default:'started';check:status IN ('started','won','lost')"`

	Timestamps
}
