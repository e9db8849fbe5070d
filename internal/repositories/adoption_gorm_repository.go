package repositories

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"petadopt/internal/apperr"
	"petadopt/internal/models"
)

// GORMAdoptionRepository is a GORM implementation of AdoptionRepository.
type GORMAdoptionRepository struct {
	db *gorm.DB
}

// NewGORMAdoptionRepository creates a new instance of GORMAdoptionRepository.
func NewGORMAdoptionRepository(db *gorm.DB) *GORMAdoptionRepository {
	return &GORMAdoptionRepository{db: db}
}

func (r *GORMAdoptionRepository) GetAll() ([]models.AdoptionRequest, error) {
	var requests []models.AdoptionRequest
	if err := r.db.Preload("Pet").Preload("Pet.Shelter").Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("failed to get all adoption requests: %w", err)
	}
	return requests, nil
}

func (r *GORMAdoptionRepository) GetByID(id string) (*models.AdoptionRequest, error) {
	var request models.AdoptionRequest
	err := r.db.Preload("Pet").Preload("Pet.Shelter").First(&request, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("adoption request with ID %s not found", id)
		}
		return nil, fmt.Errorf("failed to get adoption request by ID %s: %w", id, err)
	}
	return &request, nil
}

func (r *GORMAdoptionRepository) GetByPetAndUser(petID, userID string) (*models.AdoptionRequest, error) {
	var request models.AdoptionRequest
	err := r.db.First(&request, "pet_id = ? AND user_id = ?", petID, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("no adoption request for pet %s by user %s", petID, userID)
		}
		return nil, fmt.Errorf("failed to look up adoption request: %w", err)
	}
	return &request, nil
}

func (r *GORMAdoptionRepository) ListByUser(userID string) ([]models.AdoptionRequest, error) {
	var requests []models.AdoptionRequest
	err := r.db.Preload("Pet").Preload("Pet.Shelter").
		Where("user_id = ?", userID).
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list adoption requests for user %s: %w", userID, err)
	}
	return requests, nil
}

// Create inserts the request. The composite unique index on (pet_id, user_id)
// is the last line of defense against concurrent duplicate submissions; a
// violation surfaces as gorm.ErrDuplicatedKey for the service to translate.
func (r *GORMAdoptionRepository) Create(request *models.AdoptionRequest) error {
	if err := r.db.Create(request).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
		return fmt.Errorf("failed to create adoption request: %w", err)
	}
	return nil
}

func (r *GORMAdoptionRepository) Update(request *models.AdoptionRequest) error {
	res := r.db.Omit("Pet", "User").Save(request)
	if res.Error != nil {
		return fmt.Errorf("failed to update adoption request: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("adoption request with ID %s not found for update", request.ID)
	}
	return nil
}

func (r *GORMAdoptionRepository) UpdateStatus(id, status string) error {
	res := r.db.Model(&models.AdoptionRequest{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to update adoption request status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("adoption request with ID %s not found for update", id)
	}
	return nil
}

func (r *GORMAdoptionRepository) Delete(id string) error {
	res := r.db.Delete(&models.AdoptionRequest{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete adoption request: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("adoption request with ID %s not found for deletion", id)
	}
	return nil
}
