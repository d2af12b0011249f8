package models

// CardRarity buckets catalogue cards for deck-building caps and reward grants.
type CardRarity string

const (
	RarityCommon    CardRarity = "common"
	RarityUncommon  CardRarity = "uncommon"
	RarityRare      CardRarity = "rare"
	RarityEpic      CardRarity = "epic"
	RarityLegendary CardRarity = "legendary"
)

// Card is a catalogue entry: the immutable definition every card instance points at.
// Power is 4-directional (top/right/bottom/left), matching the board rules.
type Card struct {
	ID     string     `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Name   string     `gorm:"uniqueIndex;not null" json:"name"`
	Rarity CardRarity `gorm:"type:varchar(16);not null;index" json:"rarity"`

	PowerTop    int `json:"power_top" gorm:"default:1"`
	PowerRight  int `json:"power_right" gorm:"default:1"`
	PowerBottom int `json:"power_bottom" gorm:"default:1"`
	PowerLeft   int `json:"power_left" gorm:"default:1"`

	SpecialAbility string `gorm:"type:text" json:"special_ability,omitempty"`

	// Variant-art printings are excluded from prompts/fallback pools and only
	// handed out as milestone rewards.
	IsVariantArt bool `gorm:"default:false;index" json:"is_variant_art"`

	Timestamps
}

// CardInstance is an owned copy of a catalogue card, with its level and the
// per-edge power-up points allocated to it.
type CardInstance struct {
	ID      string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	CardID  string `gorm:"type:uuid;not null;index" json:"card_id"`
	OwnerID string `gorm:"not null;index" json:"owner_id"` // Player.ExternalUserID

	Level int `json:"level" gorm:"default:1"`

	PowerUpTop    int `json:"power_up_top" gorm:"default:0"`
	PowerUpRight  int `json:"power_up_right" gorm:"default:0"`
	PowerUpBottom int `json:"power_up_bottom" gorm:"default:0"`
	PowerUpLeft   int `json:"power_up_left" gorm:"default:0"`

	Card *Card `gorm:"foreignKey:CardID" json:"card,omitempty"`

	Timestamps
}

// TotalPowerUps returns the allocated power-up points across all four edges.
func (ci *CardInstance) TotalPowerUps() int {
	return ci.PowerUpTop + ci.PowerUpRight + ci.PowerUpBottom + ci.PowerUpLeft
}
