package repositories

import "petadopt/internal/models"

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(user *models.User) error
	// CreateWithShelter persists a user and its shelter record atomically;
	// used when someone registers with the shelter role.
	CreateWithShelter(user *models.User, shelter *models.Shelter) error
	GetAll() ([]models.User, error)
	GetByID(id string) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Update(user *models.User) error
	Delete(id string) error
}
