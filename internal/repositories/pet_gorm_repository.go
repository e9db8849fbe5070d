package repositories

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"petadopt/internal/apperr"
	"petadopt/internal/models"
)

// GORMPetRepository is a GORM implementation of PetRepository.
type GORMPetRepository struct {
	db *gorm.DB
}

// NewGORMPetRepository creates a new instance of GORMPetRepository.
func NewGORMPetRepository(db *gorm.DB) *GORMPetRepository {
	return &GORMPetRepository{db: db}
}

func (r *GORMPetRepository) GetAll() ([]models.Pet, error) {
	var pets []models.Pet
	err := r.db.
		Preload("Photos").
		Preload("Shelter").
		Find(&pets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get all pets: %w", err)
	}
	return pets, nil
}

func (r *GORMPetRepository) GetByID(id string) (*models.Pet, error) {
	var pet models.Pet
	err := r.db.
		Preload("Photos").
		Preload("Shelter").
		Preload("Owner").
		First(&pet, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("pet with ID %s not found", id)
		}
		return nil, fmt.Errorf("failed to get pet by ID %s: %w", id, err)
	}
	return &pet, nil
}

// Create persists the pet together with any photos already attached to it.
// GORM wraps the insert and its associations in a single transaction, so a
// failure anywhere leaves no partial pet behind.
func (r *GORMPetRepository) Create(pet *models.Pet) error {
	if err := r.db.Create(pet).Error; err != nil {
		if apperr.KindOf(err) != apperr.KindUnknown {
			return err
		}
		return fmt.Errorf("failed to create pet: %w", err)
	}
	return nil
}

func (r *GORMPetRepository) Update(pet *models.Pet) error {
	res := r.db.Omit("Photos", "Shelter", "Owner").Save(pet)
	if res.Error != nil {
		if apperr.KindOf(res.Error) != apperr.KindUnknown {
			return res.Error
		}
		return fmt.Errorf("failed to update pet: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("pet with ID %s not found for update", pet.ID)
	}
	return nil
}

func (r *GORMPetRepository) Delete(id string) error {
	res := r.db.Select("Photos").Delete(&models.Pet{ID: id})
	if res.Error != nil {
		return fmt.Errorf("failed to delete pet: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("pet with ID %s not found for deletion", id)
	}
	return nil
}

func (r *GORMPetRepository) AttachPhotos(petID string, photos []models.PetPhoto) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.PetPhoto{}).
			Where("pet_id = ?", petID).
			Update("is_primary", false).Error
		if err != nil {
			return err
		}
		for i := range photos {
			photos[i].PetID = petID
		}
		if len(photos) == 0 {
			return nil
		}
		return tx.Create(&photos).Error
	})
	if err != nil {
		return fmt.Errorf("failed to attach photos to pet %s: %w", petID, err)
	}
	return nil
}
