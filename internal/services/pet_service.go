package services

import (
	"github.com/go-playground/validator/v10"

	"petadopt/internal/apperr"
	"petadopt/internal/authz"
	"petadopt/internal/models"
	"petadopt/internal/repositories"
)

// PetUpdate carries the fields a pet update may change. Nil pointers mean
// "not submitted". OwnerID and ShelterID accept an empty string to clear the
// reference (admin only, and only while the other side is set).
type PetUpdate struct {
	Name        *string `json:"name"`
	PetType     *string `json:"pet_type"`
	Breed       *string `json:"breed"`
	Age         *int    `json:"age"`
	AgeUnit     *string `json:"age_unit"`
	Size        *string `json:"size"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	OwnerID     *string `json:"owner_id"`
	ShelterID   *string `json:"shelter_id"`
}

// PetService handles the pet lifecycle: role-forced ownership on creation,
// the owner-xor-shelter invariant, the owner/shelter change guard on update,
// and the photo collection side effects.
type PetService struct {
	petRepo     repositories.PetRepository
	shelterRepo repositories.ShelterRepository
	photos      *PhotoManager
	validate    *validator.Validate
}

// NewPetService creates a new PetService.
func NewPetService(petRepo repositories.PetRepository, shelterRepo repositories.ShelterRepository, photos *PhotoManager) *PetService {
	return &PetService{
		petRepo:     petRepo,
		shelterRepo: shelterRepo,
		photos:      photos,
		validate:    validator.New(),
	}
}

// GetAllPets retrieves all pets. Open to anonymous callers.
func (s *PetService) GetAllPets() ([]models.Pet, error) {
	return s.petRepo.GetAll()
}

// GetPetByID retrieves a single pet. Open to anonymous callers.
func (s *PetService) GetPetByID(id string) (*models.Pet, error) {
	return s.petRepo.GetByID(id)
}

// CreatePet creates a pet on behalf of actor. The actor's role decides the
// forced ownership: a shelter user's pet belongs to their shelter, a client's
// pet to themselves; any other role leaves the submitted fields alone. The
// files, if any, become the pet's ordered photo collection with the first one
// primary. Nothing is persisted when normalization of any file fails.
func (s *PetService) CreatePet(actor *models.User, pet *models.Pet, files []Upload) (*models.Pet, error) {
	if actor == nil {
		return nil, apperr.Authentication("authentication required")
	}
	if !authz.Authorize(actor, authz.ActionCreate, pet) {
		return nil, apperr.Permission("only shelter and client accounts can create pets")
	}

	switch actor.Role {
	case models.RoleShelter:
		shelter, err := s.shelterRepo.GetByUserID(actor.ID)
		if err != nil {
			return nil, apperr.Configuration("shelter accounts must have an associated shelter; contact an administrator").Wrap(err)
		}
		pet.ShelterID = &shelter.ID
		pet.Shelter = shelter
		pet.OwnerID = nil
		pet.Owner = nil
	case models.RoleClient:
		ownerID := actor.ID
		pet.OwnerID = &ownerID
		pet.ShelterID = nil
		pet.Shelter = nil
	}

	if err := pet.ValidateOwnership(); err != nil {
		return nil, err
	}

	photos, err := s.photos.Prepare(pet, files)
	if err != nil {
		return nil, err
	}
	pet.Photos = photos

	if err := s.petRepo.Create(pet); err != nil {
		s.photos.Discard(photos)
		return nil, err
	}
	return pet, nil
}

// UpdatePet applies upd to the pet. Non-admin callers may not move a pet to a
// different owner or shelter: a submitted value that differs from the current
// one fails with a permission error, resubmitting the current value is fine.
// Newly attached photos replace the primary designation without deleting the
// old photos.
func (s *PetService) UpdatePet(actor *models.User, id string, upd *PetUpdate, files []Upload) (*models.Pet, error) {
	if actor == nil {
		return nil, apperr.Authentication("authentication required")
	}
	pet, err := s.petRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !authz.Authorize(actor, authz.ActionUpdate, pet) {
		return nil, apperr.Permission("you do not have permission to modify this pet")
	}

	if actor.Role != models.RoleAdmin {
		if upd.OwnerID != nil && !sameRef(upd.OwnerID, pet.OwnerID) {
			return nil, apperr.Permission("you cannot change the pet's owner")
		}
		if upd.ShelterID != nil && !sameRef(upd.ShelterID, pet.ShelterID) {
			return nil, apperr.Permission("you cannot change the pet's shelter")
		}
	}

	applyPetUpdate(pet, upd)
	if err := pet.ValidateOwnership(); err != nil {
		return nil, err
	}
	if upd.Status != nil && *upd.Status == "" {
		return nil, apperr.Validation("status cannot be empty")
	}
	// Field domains (pet_type, age_unit, lengths) hold on update too, not
	// just on creation.
	if err := s.validate.Struct(pet); err != nil {
		return nil, apperr.Validation("invalid pet data: %s", err)
	}

	if err := s.petRepo.Update(pet); err != nil {
		return nil, err
	}

	if len(files) > 0 {
		photos, err := s.photos.Attach(pet, files)
		if err != nil {
			return nil, err
		}
		for i := range pet.Photos {
			pet.Photos[i].IsPrimary = false
		}
		pet.Photos = append(pet.Photos, photos...)
	}
	return pet, nil
}

// DeletePet removes the pet and its photo collection.
func (s *PetService) DeletePet(actor *models.User, id string) error {
	if actor == nil {
		return apperr.Authentication("authentication required")
	}
	pet, err := s.petRepo.GetByID(id)
	if err != nil {
		return err
	}
	if !authz.Authorize(actor, authz.ActionDelete, pet) {
		return apperr.Permission("you do not have permission to delete this pet")
	}
	if err := s.petRepo.Delete(id); err != nil {
		return err
	}
	s.photos.Discard(pet.Photos)
	return nil
}

func applyPetUpdate(pet *models.Pet, upd *PetUpdate) {
	if upd.Name != nil {
		pet.Name = *upd.Name
	}
	if upd.PetType != nil {
		pet.PetType = *upd.PetType
	}
	if upd.Breed != nil {
		pet.Breed = *upd.Breed
	}
	if upd.Age != nil {
		pet.Age = upd.Age
	}
	if upd.AgeUnit != nil {
		pet.AgeUnit = *upd.AgeUnit
	}
	if upd.Size != nil {
		pet.Size = *upd.Size
	}
	if upd.Description != nil {
		pet.Description = *upd.Description
	}
	if upd.Status != nil {
		pet.Status = *upd.Status
	}
	if upd.OwnerID != nil {
		pet.OwnerID = normalizeRef(upd.OwnerID)
		pet.Owner = nil
	}
	if upd.ShelterID != nil {
		pet.ShelterID = normalizeRef(upd.ShelterID)
		pet.Shelter = nil
	}
}

// sameRef compares a submitted reference with the stored one, treating empty
// string and nil as the same absent value.
func sameRef(submitted, current *string) bool {
	sub := ""
	if submitted != nil {
		sub = *submitted
	}
	cur := ""
	if current != nil {
		cur = *current
	}
	return sub == cur
}

func normalizeRef(ref *string) *string {
	if ref == nil || *ref == "" {
		return nil
	}
	return ref
}
