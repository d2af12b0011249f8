package models

// TowerFloor is one rung of the endless ladder. Floors are append-only and
// strictly increasing; once created, only IsActive may change.
type TowerFloor struct {
	ID          string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	FloorNumber int    `gorm:"uniqueIndex;not null" json:"floor_number"`
	Name        string `gorm:"not null" json:"name"`
	Slug        string `gorm:"uniqueIndex;not null" json:"slug"`
	AIDeckID    string `gorm:"type:uuid;not null" json:"ai_deck_id"`

	// Informational, derived from the AI deck at creation time.
	AverageCardLevel float64 `json:"average_card_level"`

	IsActive bool `gorm:"default:true;index" json:"is_active"`

	Timestamps
}
