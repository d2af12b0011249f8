package models

// Deck groups 20 card instances under an owner. AI opponent decks are owned by
// a system account and flagged IsAI; they are immutable once their floor exists.
type Deck struct {
	ID      string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Name    string `gorm:"not null" json:"name"`
	OwnerID string `gorm:"not null;index" json:"owner_id"` // Player.ExternalUserID
	IsAI    bool   `gorm:"default:false;index" json:"is_ai"`

	Cards []DeckCard `gorm:"foreignKey:DeckID" json:"cards,omitempty"`

	Timestamps
}

// DeckCard is the ordered join between a deck and its card instances.
type DeckCard struct {
	ID             string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	DeckID         string `gorm:"type:uuid;not null;index" json:"deck_id"`
	CardInstanceID string `gorm:"type:uuid;not null" json:"card_instance_id"`
	Position       int    `json:"position" gorm:"not null"`

	CardInstance *CardInstance `gorm:"foreignKey:CardInstanceID" json:"card_instance,omitempty"`
}
