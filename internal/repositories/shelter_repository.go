package repositories

import "petadopt/internal/models"

// ShelterRepository defines the interface for shelter data access.
type ShelterRepository interface {
	GetAll() ([]models.Shelter, error)
	GetByID(id string) (*models.Shelter, error)
	// GetByUserID resolves the shelter behind a user with the shelter role.
	GetByUserID(userID string) (*models.Shelter, error)
	Create(shelter *models.Shelter) error
	Update(shelter *models.Shelter) error
	Delete(id string) error
}
