package repositories

import "petadopt/internal/models"

// PetRepository defines the interface for pet data access. Create persists a
// pet and any pre-attached photos in one transaction.
type PetRepository interface {
	GetAll() ([]models.Pet, error)
	GetByID(id string) (*models.Pet, error)
	Create(pet *models.Pet) error
	Update(pet *models.Pet) error
	Delete(id string) error
	// AttachPhotos clears every existing primary flag on the pet's photos
	// and inserts the new records, all in one transaction.
	AttachPhotos(petID string, photos []models.PetPhoto) error
}
