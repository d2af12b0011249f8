package services

import (
	"errors"
	"fmt"

	"tower-progression-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TowerProgressService owns reads and writes of tower progress and the floor
// catalogue, including the row-lock discipline the completion path relies on.
type TowerProgressService struct {
	DB *gorm.DB
}

func NewTowerProgressService(db *gorm.DB) *TowerProgressService {
	return &TowerProgressService{DB: db}
}

// EnsurePlayer ensures a Player row exists for the external user (idempotent).
func (s *TowerProgressService) EnsurePlayer(externalUserID string) (*models.Player, error) {
	var player models.Player
	err := s.DB.Where("external_user_id = ?", externalUserID).First(&player).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		player = models.Player{
			ID:             uuid.NewString(),
			ExternalUserID: externalUserID,
			CurrentFloor:   1,
		}
		if err := s.DB.Create(&player).Error; err != nil {
			return nil, err
		}
		return &player, nil
	}
	if err != nil {
		return nil, err
	}
	return &player, nil
}

// EnsureSystemAccount creates the system player that owns the AI opponent
// decks. Called once at startup; idempotent.
func (s *TowerProgressService) EnsureSystemAccount(externalUserID string) error {
	player := models.Player{
		ID:             uuid.NewString(),
		ExternalUserID: externalUserID,
		Username:       externalUserID,
		IsSystem:       true,
	}
	return s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_user_id"}},
		DoNothing: true,
	}).Create(&player).Error
}

// GetPlayer fetches a player by external user id.
func (s *TowerProgressService) GetPlayer(externalUserID string) (*models.Player, error) {
	var player models.Player
	if err := s.DB.Where("external_user_id = ?", externalUserID).First(&player).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrPlayerNotFound, externalUserID)
		}
		return nil, err
	}
	return &player, nil
}

// GetCurrentFloor returns the player's current floor number.
func (s *TowerProgressService) GetCurrentFloor(externalUserID string) (int, error) {
	player, err := s.GetPlayer(externalUserID)
	if err != nil {
		return 0, err
	}
	return player.CurrentFloor, nil
}

// LockPlayer re-fetches the player's row under an exclusive lock held for the
// duration of the enclosing transaction. A concurrent caller blocks here and
// then observes the post-commit state, never a stale value.
func (s *TowerProgressService) LockPlayer(tx *gorm.DB, externalUserID string) (*models.Player, error) {
	var player models.Player
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("external_user_id = ?", externalUserID).
		First(&player).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrPlayerNotFound, externalUserID)
		}
		return nil, fmt.Errorf("failed to lock player row: %w", err)
	}
	return &player, nil
}

// GetFloor fetches a tower floor by number.
func (s *TowerProgressService) GetFloor(floorNumber int) (*models.TowerFloor, error) {
	var floor models.TowerFloor
	if err := s.DB.Where("floor_number = ?", floorNumber).First(&floor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: floor %d", ErrFloorNotFound, floorNumber)
		}
		return nil, err
	}
	return &floor, nil
}

// GetFloorBySlug fetches a tower floor by its public slug.
func (s *TowerProgressService) GetFloorBySlug(slug string) (*models.TowerFloor, error) {
	var floor models.TowerFloor
	if err := s.DB.Where("slug = ?", slug).First(&floor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrFloorNotFound, slug)
		}
		return nil, err
	}
	return &floor, nil
}

// ListFloors returns active floors ordered by number, newest last.
func (s *TowerProgressService) ListFloors(limit, offset int) ([]models.TowerFloor, error) {
	var floors []models.TowerFloor
	err := s.DB.Where("is_active = ?", true).
		Order("floor_number ASC").
		Limit(limit).Offset(offset).
		Find(&floors).Error
	return floors, err
}

// MaxFloorNumber returns the highest generated floor number, 0 for an empty
// tower.
func (s *TowerProgressService) MaxFloorNumber() (int, error) {
	var max int
	err := s.DB.Model(&models.TowerFloor{}).
		Select("COALESCE(MAX(floor_number), 0)").
		Scan(&max).Error
	return max, err
}

// HighestPlayerFloor returns the furthest floor any non-system player has
// reached, used by the daily lookahead job.
func (s *TowerProgressService) HighestPlayerFloor() (int, error) {
	var max int
	err := s.DB.Model(&models.Player{}).
		Select("COALESCE(MAX(current_floor), 0)").
		Where("is_system = ?", false).
		Scan(&max).Error
	return max, err
}

// CreateFloor inserts a floor row if its number is not already taken. Creation
// is idempotent: a duplicate floor number is a silent no-op, never a second
// row and never an error. Returns whether a row was inserted.
func (s *TowerProgressService) CreateFloor(tx *gorm.DB, floor *models.TowerFloor) (bool, error) {
	if tx == nil {
		tx = s.DB
	}
	var existing int64
	if err := tx.Model(&models.TowerFloor{}).
		Where("floor_number = ?", floor.FloorNumber).
		Count(&existing).Error; err != nil {
		return false, err
	}
	if existing > 0 {
		return false, nil
	}
	// OnConflict backstop for the race between the existence check and the
	// insert across process instances.
	result := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "floor_number"}},
		DoNothing: true,
	}).Create(floor)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// SetFloorActive toggles the soft-disable flag, the only mutation a floor
// allows after creation.
func (s *TowerProgressService) SetFloorActive(floorNumber int, active bool) (*models.TowerFloor, error) {
	floor, err := s.GetFloor(floorNumber)
	if err != nil {
		return nil, err
	}
	floor.IsActive = active
	if err := s.DB.Save(floor).Error; err != nil {
		return nil, err
	}
	return floor, nil
}
