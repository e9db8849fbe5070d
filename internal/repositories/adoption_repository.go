package repositories

import "petadopt/internal/models"

// AdoptionRepository defines the interface for adoption request data access.
type AdoptionRepository interface {
	GetAll() ([]models.AdoptionRequest, error)
	GetByID(id string) (*models.AdoptionRequest, error)
	// GetByPetAndUser returns the request a user already filed for a pet, or
	// a not-found error.
	GetByPetAndUser(petID, userID string) (*models.AdoptionRequest, error)
	ListByUser(userID string) ([]models.AdoptionRequest, error)
	Create(request *models.AdoptionRequest) error
	Update(request *models.AdoptionRequest) error
	UpdateStatus(id, status string) error
	Delete(id string) error
}
