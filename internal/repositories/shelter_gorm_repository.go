package repositories

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"petadopt/internal/apperr"
	"petadopt/internal/models"
)

// GORMShelterRepository is a GORM implementation of ShelterRepository.
type GORMShelterRepository struct {
	db *gorm.DB
}

// NewGORMShelterRepository creates a new instance of GORMShelterRepository.
func NewGORMShelterRepository(db *gorm.DB) *GORMShelterRepository {
	return &GORMShelterRepository{db: db}
}

func (r *GORMShelterRepository) GetAll() ([]models.Shelter, error) {
	var shelters []models.Shelter
	if err := r.db.Find(&shelters).Error; err != nil {
		return nil, fmt.Errorf("failed to get all shelters: %w", err)
	}
	return shelters, nil
}

func (r *GORMShelterRepository) GetByID(id string) (*models.Shelter, error) {
	var shelter models.Shelter
	if err := r.db.First(&shelter, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("shelter with ID %s not found", id)
		}
		return nil, fmt.Errorf("failed to get shelter by ID %s: %w", id, err)
	}
	return &shelter, nil
}

func (r *GORMShelterRepository) GetByUserID(userID string) (*models.Shelter, error) {
	var shelter models.Shelter
	if err := r.db.First(&shelter, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("no shelter associated with user %s", userID)
		}
		return nil, fmt.Errorf("failed to get shelter for user %s: %w", userID, err)
	}
	return &shelter, nil
}

func (r *GORMShelterRepository) Create(shelter *models.Shelter) error {
	if err := r.db.Create(shelter).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.Conflict("user already has a shelter").Wrap(err)
		}
		return fmt.Errorf("failed to create shelter: %w", err)
	}
	return nil
}

func (r *GORMShelterRepository) Update(shelter *models.Shelter) error {
	res := r.db.Save(shelter)
	if res.Error != nil {
		return fmt.Errorf("failed to update shelter: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("shelter with ID %s not found for update", shelter.ID)
	}
	return nil
}

// Delete removes a shelter for real, taking its pets (with their photos and
// pending requests) along. Hard deletes keep the unique index on user_id free
// so the owning account can be attached to a new shelter.
func (r *GORMShelterRepository) Delete(id string) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var petIDs []string
		if err := tx.Unscoped().Model(&models.Pet{}).Where("shelter_id = ?", id).
			Pluck("id", &petIDs).Error; err != nil {
			return err
		}
		if len(petIDs) > 0 {
			if err := tx.Where("pet_id IN ?", petIDs).Delete(&models.AdoptionRequest{}).Error; err != nil {
				return err
			}
			if err := tx.Where("pet_id IN ?", petIDs).Delete(&models.PetPhoto{}).Error; err != nil {
				return err
			}
			if err := tx.Unscoped().Where("id IN ?", petIDs).Delete(&models.Pet{}).Error; err != nil {
				return err
			}
		}

		res := tx.Unscoped().Delete(&models.Shelter{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("shelter with ID %s not found for deletion", id)
		}
		return nil
	})
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete shelter: %w", err)
	}
	return nil
}
