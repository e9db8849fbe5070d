package services

import (
	"encoding/json"
	"errors"
	"log"

	"gorm.io/gorm"

	"petadopt/internal/apperr"
	"petadopt/internal/authz"
	"petadopt/internal/models"
	"petadopt/internal/repositories"
)

// AdoptionUpdate carries the fields an adoption request update may change.
type AdoptionUpdate struct {
	Message *string `json:"message"`
	Status  *string `json:"status"`
}

// AdoptionService handles adoption request lifecycle: creation guards,
// scoped listing, and status transitions by the pet's side or an admin.
type AdoptionService struct {
	adoptionRepo repositories.AdoptionRepository
	petRepo      repositories.PetRepository
	publisher    EventPublisher
}

// NewAdoptionService creates a new AdoptionService.
func NewAdoptionService(adoptionRepo repositories.AdoptionRepository, petRepo repositories.PetRepository, publisher EventPublisher) *AdoptionService {
	return &AdoptionService{
		adoptionRepo: adoptionRepo,
		petRepo:      petRepo,
		publisher:    publisher,
	}
}

// ListRequests returns every request for admins and only the requests the
// actor personally created for everyone else. Note: shelters do NOT see
// incoming requests on their own pets through this path.
func (s *AdoptionService) ListRequests(actor *models.User) ([]models.AdoptionRequest, error) {
	if actor == nil {
		return nil, apperr.Authentication("authentication required")
	}
	if actor.Role == models.RoleAdmin {
		return s.adoptionRepo.GetAll()
	}
	return s.adoptionRepo.ListByUser(actor.ID)
}

// GetRequest retrieves a single request, scoped like ListRequests.
func (s *AdoptionService) GetRequest(actor *models.User, id string) (*models.AdoptionRequest, error) {
	if actor == nil {
		return nil, apperr.Authentication("authentication required")
	}
	request, err := s.adoptionRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleAdmin && request.UserID != actor.ID {
		return nil, apperr.NotFound("adoption request with ID %s not found", id)
	}
	return request, nil
}

// CreateRequest files an adoption request by actor (a client) for a pet. It
// is rejected when the pet cannot be resolved, when the actor owns the pet or
// the shelter behind it, or when the actor already has a request for this pet
// (the existing request's status is included in the error). The request is
// always created with status pending and the actor as its user.
func (s *AdoptionService) CreateRequest(actor *models.User, petID, message string) (*models.AdoptionRequest, error) {
	if actor == nil {
		return nil, apperr.Authentication("authentication required")
	}
	if !authz.Authorize(actor, authz.ActionCreate, &models.AdoptionRequest{}) {
		return nil, apperr.Permission("only clients can file adoption requests")
	}

	if petID == "" {
		return nil, apperr.Validation("you must select a pet")
	}
	pet, err := s.petRepo.GetByID(petID)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return nil, apperr.Validation("you must select a pet")
		}
		return nil, err
	}

	if pet.OwnerID != nil && *pet.OwnerID == actor.ID {
		return nil, apperr.Validation("you cannot request to adopt your own pet")
	}
	if pet.Shelter != nil && pet.Shelter.UserID == actor.ID {
		return nil, apperr.Validation("you cannot request to adopt a pet from your own shelter")
	}

	if existing, err := s.adoptionRepo.GetByPetAndUser(pet.ID, actor.ID); err == nil && existing != nil {
		return nil, apperr.Validation("you already have an adoption request for this pet (status: %s)", existing.Status)
	}

	request := &models.AdoptionRequest{
		PetID:   pet.ID,
		UserID:  actor.ID,
		Message: message,
		Status:  models.AdoptionStatusPending,
	}
	if err := s.adoptionRepo.Create(request); err != nil {
		// Two concurrent submissions can both pass the pre-check; the unique
		// index decides the loser and we report it like the pre-check would.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			status := models.AdoptionStatusPending
			if existing, lookupErr := s.adoptionRepo.GetByPetAndUser(pet.ID, actor.ID); lookupErr == nil {
				status = existing.Status
			}
			return nil, apperr.Validation("you already have an adoption request for this pet (status: %s)", status)
		}
		return nil, err
	}
	request.Pet = pet

	s.publish("adoption.requested", map[string]interface{}{
		"request_id": request.ID,
		"pet_id":     request.PetID,
		"user_id":    request.UserID,
		"status":     request.Status,
	})
	return request, nil
}

// UpdateRequest applies upd to a request. Allowed for admins, the requester,
// and the user behind the pet's shelter.
func (s *AdoptionService) UpdateRequest(actor *models.User, id string, upd *AdoptionUpdate) (*models.AdoptionRequest, error) {
	request, err := s.authorizeWrite(actor, id)
	if err != nil {
		return nil, err
	}

	statusChanged := false
	if upd.Status != nil && *upd.Status != request.Status {
		if !models.ValidAdoptionStatus(*upd.Status) {
			return nil, apperr.Validation("invalid adoption request status: %s", *upd.Status)
		}
		request.Status = *upd.Status
		statusChanged = true
	}
	if upd.Message != nil {
		request.Message = *upd.Message
	}

	if err := s.adoptionRepo.Update(request); err != nil {
		return nil, err
	}
	if statusChanged {
		s.publish("adoption.status_changed", map[string]interface{}{
			"request_id": request.ID,
			"pet_id":     request.PetID,
			"user_id":    request.UserID,
			"status":     request.Status,
		})
	}
	return request, nil
}

// UpdateStatus changes only the status of a request, with a targeted column
// update instead of rewriting the whole row.
func (s *AdoptionService) UpdateStatus(actor *models.User, id, status string) (*models.AdoptionRequest, error) {
	request, err := s.authorizeWrite(actor, id)
	if err != nil {
		return nil, err
	}
	if !models.ValidAdoptionStatus(status) {
		return nil, apperr.Validation("invalid adoption request status: %s", status)
	}
	if status == request.Status {
		return request, nil
	}

	if err := s.adoptionRepo.UpdateStatus(id, status); err != nil {
		return nil, err
	}
	request.Status = status

	s.publish("adoption.status_changed", map[string]interface{}{
		"request_id": request.ID,
		"pet_id":     request.PetID,
		"user_id":    request.UserID,
		"status":     request.Status,
	})
	return request, nil
}

// DeleteRequest removes a request, with the same permissions as updates.
func (s *AdoptionService) DeleteRequest(actor *models.User, id string) error {
	if _, err := s.authorizeWrite(actor, id); err != nil {
		return err
	}
	return s.adoptionRepo.Delete(id)
}

func (s *AdoptionService) authorizeWrite(actor *models.User, id string) (*models.AdoptionRequest, error) {
	if actor == nil {
		return nil, apperr.Authentication("authentication required")
	}
	request, err := s.adoptionRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !authz.Authorize(actor, authz.ActionUpdate, request) {
		return nil, apperr.Permission("you do not have permission to modify this adoption request")
	}
	return request, nil
}

func (s *AdoptionService) publish(routingKey string, payload map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", routingKey, err)
		return
	}
	if err := s.publisher.Publish(routingKey, body); err != nil {
		log.Printf("Warning: failed to publish %s event: %v", routingKey, err)
	}
}
