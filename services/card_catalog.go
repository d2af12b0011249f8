package services

import (
	"fmt"

	"tower-progression-system/models"

	"gorm.io/gorm"
)

// CardCatalog is read access to the card catalogue for prompt construction,
// fallback deck pools and milestone card grants.
type CardCatalog struct {
	DB *gorm.DB
}

func NewCardCatalog(db *gorm.DB) *CardCatalog {
	return &CardCatalog{DB: db}
}

// CardsByRarity returns all non-variant catalogue cards grouped by rarity.
func (c *CardCatalog) CardsByRarity() (map[models.CardRarity][]models.Card, error) {
	var cards []models.Card
	if err := c.DB.Where("is_variant_art = ?", false).Order("name ASC").Find(&cards).Error; err != nil {
		return nil, fmt.Errorf("failed to load card catalogue: %w", err)
	}
	pools := make(map[models.CardRarity][]models.Card)
	for _, card := range cards {
		pools[card.Rarity] = append(pools[card.Rarity], card)
	}
	return pools, nil
}

// CardsByName indexes the non-variant catalogue by card name, used to resolve
// names referenced in oracle output.
func (c *CardCatalog) CardsByName() (map[string]models.Card, error) {
	pools, err := c.CardsByRarity()
	if err != nil {
		return nil, err
	}
	byName := make(map[string]models.Card)
	for _, cards := range pools {
		for _, card := range cards {
			byName[card.Name] = card
		}
	}
	return byName, nil
}

// RandomCard picks a random catalogue card of the given rarity on the provided
// handle (pass a transaction when the pick must be part of one).
func (c *CardCatalog) RandomCard(tx *gorm.DB, rarity models.CardRarity, variantArt bool) (*models.Card, error) {
	if tx == nil {
		tx = c.DB
	}
	var card models.Card
	err := tx.Where("rarity = ? AND is_variant_art = ?", rarity, variantArt).
		Order("RANDOM()").
		First(&card).Error
	if err != nil {
		return nil, fmt.Errorf("no %s card available (variant_art=%t): %w", rarity, variantArt, err)
	}
	return &card, nil
}
