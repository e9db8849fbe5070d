package services

import (
	"fmt"
	"time"

	"github.com/gosimple/slug"

	"petadopt/internal/apperr"
	"petadopt/internal/authz"
	"petadopt/internal/images"
	"petadopt/internal/models"
	"petadopt/internal/repositories"
	"petadopt/internal/storage"
)

// ShelterUpdate carries the fields a shelter update may change. A nil Photo
// means no new upload was submitted: the stored photo stays untouched and is
// not re-normalized.
type ShelterUpdate struct {
	Name     *string `json:"name"`
	Address  *string `json:"address"`
	Verified *bool   `json:"verified"`
	Photo    *Upload `json:"-"`
}

// ShelterService handles shelter CRUD. Reading is public; creating, updating
// and deleting are admin operations (shelters otherwise come into existence
// through registration).
type ShelterService struct {
	shelterRepo repositories.ShelterRepository
	store       storage.FileStore
}

// NewShelterService creates a new ShelterService.
func NewShelterService(shelterRepo repositories.ShelterRepository, store storage.FileStore) *ShelterService {
	return &ShelterService{shelterRepo: shelterRepo, store: store}
}

// GetAllShelters retrieves all shelters. Open to anonymous callers.
func (s *ShelterService) GetAllShelters() ([]models.Shelter, error) {
	return s.shelterRepo.GetAll()
}

// GetShelterByID retrieves a single shelter. Open to anonymous callers.
func (s *ShelterService) GetShelterByID(id string) (*models.Shelter, error) {
	return s.shelterRepo.GetByID(id)
}

// CreateShelter creates a shelter record directly. Admin only.
func (s *ShelterService) CreateShelter(actor *models.User, shelter *models.Shelter, photo *Upload) (*models.Shelter, error) {
	if actor == nil {
		return nil, apperr.Authentication("authentication required")
	}
	if !authz.Authorize(actor, authz.ActionCreate, shelter) {
		return nil, apperr.Permission("only administrators can create shelters")
	}
	if photo != nil {
		path, err := s.storePhoto(shelter.Name, photo)
		if err != nil {
			return nil, err
		}
		shelter.Photo = path
	}
	if err := s.shelterRepo.Create(shelter); err != nil {
		if shelter.Photo != "" {
			s.store.Remove(shelter.Photo)
		}
		return nil, err
	}
	return shelter, nil
}

// UpdateShelter applies upd to the shelter. Admin only. The photo is only
// normalized and replaced when a new upload is submitted.
func (s *ShelterService) UpdateShelter(actor *models.User, id string, upd *ShelterUpdate) (*models.Shelter, error) {
	if actor == nil {
		return nil, apperr.Authentication("authentication required")
	}
	shelter, err := s.shelterRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !authz.Authorize(actor, authz.ActionUpdate, shelter) {
		return nil, apperr.Permission("only administrators can modify shelters")
	}

	if upd.Name != nil {
		shelter.Name = *upd.Name
	}
	if upd.Address != nil {
		shelter.Address = *upd.Address
	}
	if upd.Verified != nil {
		shelter.Verified = *upd.Verified
	}
	if upd.Photo != nil {
		path, err := s.storePhoto(shelter.Name, upd.Photo)
		if err != nil {
			return nil, err
		}
		shelter.Photo = path
	}

	if err := s.shelterRepo.Update(shelter); err != nil {
		return nil, err
	}
	return shelter, nil
}

// DeleteShelter removes the shelter record. Admin only.
func (s *ShelterService) DeleteShelter(actor *models.User, id string) error {
	if actor == nil {
		return apperr.Authentication("authentication required")
	}
	shelter, err := s.shelterRepo.GetByID(id)
	if err != nil {
		return err
	}
	if !authz.Authorize(actor, authz.ActionDelete, shelter) {
		return apperr.Permission("only administrators can delete shelters")
	}
	if err := s.shelterRepo.Delete(id); err != nil {
		return err
	}
	if shelter.Photo != "" {
		s.store.Remove(shelter.Photo)
	}
	return nil
}

func (s *ShelterService) storePhoto(name string, photo *Upload) (string, error) {
	normalized, err := images.Normalize(photo.Data)
	if err != nil {
		return "", err
	}
	slugName := slug.Make(name)
	if slugName == "" {
		slugName = "shelter"
	}
	path := fmt.Sprintf("shelters/%s_%d.jpg", slugName, time.Now().Unix())
	if err := s.store.Save(path, normalized); err != nil {
		return "", err
	}
	return path, nil
}
