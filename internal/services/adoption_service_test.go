package services_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"petadopt/internal/apperr"
	"petadopt/internal/models"
	"petadopt/internal/services"
)

// MockAdoptionRepository is a mock implementation of repositories.AdoptionRepository
type MockAdoptionRepository struct {
	mock.Mock
}

func (m *MockAdoptionRepository) GetAll() ([]models.AdoptionRequest, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AdoptionRequest), args.Error(1)
}

func (m *MockAdoptionRepository) GetByID(id string) (*models.AdoptionRequest, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AdoptionRequest), args.Error(1)
}

func (m *MockAdoptionRepository) GetByPetAndUser(petID, userID string) (*models.AdoptionRequest, error) {
	args := m.Called(petID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AdoptionRequest), args.Error(1)
}

func (m *MockAdoptionRepository) ListByUser(userID string) ([]models.AdoptionRequest, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AdoptionRequest), args.Error(1)
}

func (m *MockAdoptionRepository) Create(request *models.AdoptionRequest) error {
	args := m.Called(request)
	return args.Error(0)
}

func (m *MockAdoptionRepository) Update(request *models.AdoptionRequest) error {
	args := m.Called(request)
	return args.Error(0)
}

func (m *MockAdoptionRepository) UpdateStatus(id, status string) error {
	args := m.Called(id, status)
	return args.Error(0)
}

func (m *MockAdoptionRepository) Delete(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

// recordingPublisher captures published events for assertions.
type recordingPublisher struct {
	events []publishedEvent
}

type publishedEvent struct {
	RoutingKey string
	Payload    map[string]interface{}
}

func (p *recordingPublisher) Publish(routingKey string, body []byte) error {
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return err
	}
	p.events = append(p.events, publishedEvent{RoutingKey: routingKey, Payload: payload})
	return nil
}

func newAdoptionService(adoptionRepo *MockAdoptionRepository, petRepo *MockPetRepository, pub *recordingPublisher) *services.AdoptionService {
	var publisher services.EventPublisher
	if pub != nil {
		publisher = pub
	}
	return services.NewAdoptionService(adoptionRepo, petRepo, publisher)
}

func shelterPet(id, shelterID, shelterUserID string) *models.Pet {
	return &models.Pet{
		ID:        id,
		Name:      "Michi",
		PetType:   models.PetTypeCat,
		ShelterID: &shelterID,
		Shelter:   &models.Shelter{ID: shelterID, UserID: shelterUserID, Name: "Happy Paws"},
	}
}

func TestAdoptionService_CreateRequest(t *testing.T) {
	adoptionRepo := new(MockAdoptionRepository)
	petRepo := new(MockPetRepository)
	pub := &recordingPublisher{}
	svc := newAdoptionService(adoptionRepo, petRepo, pub)

	pet := shelterPet("p1", "s1", "shelter-user")
	petRepo.On("GetByID", "p1").Return(pet, nil).Once()
	adoptionRepo.On("GetByPetAndUser", "p1", "u1").Return(nil, apperr.NotFound("none")).Once()
	adoptionRepo.On("Create", mock.AnythingOfType("*models.AdoptionRequest")).Return(nil).Once()

	request, err := svc.CreateRequest(clientUser("u1"), "p1", "I have a big garden")
	require.NoError(t, err)
	assert.Equal(t, models.AdoptionStatusPending, request.Status)
	assert.Equal(t, "u1", request.UserID)
	assert.Equal(t, "p1", request.PetID)

	require.Len(t, pub.events, 1)
	assert.Equal(t, "adoption.requested", pub.events[0].RoutingKey)
	assert.Equal(t, "pending", pub.events[0].Payload["status"])
	adoptionRepo.AssertExpectations(t)
}

func TestAdoptionService_CreateRequest_DuplicateReportsStatus(t *testing.T) {
	adoptionRepo := new(MockAdoptionRepository)
	petRepo := new(MockPetRepository)
	svc := newAdoptionService(adoptionRepo, petRepo, nil)

	pet := shelterPet("p1", "s1", "shelter-user")
	petRepo.On("GetByID", "p1").Return(pet, nil).Once()
	existing := &models.AdoptionRequest{ID: "r1", PetID: "p1", UserID: "u1", Status: models.AdoptionStatusPending}
	adoptionRepo.On("GetByPetAndUser", "p1", "u1").Return(existing, nil).Once()

	_, err := svc.CreateRequest(clientUser("u1"), "p1", "again")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	assert.Contains(t, err.Error(), "pending")
	adoptionRepo.AssertNotCalled(t, "Create")
}

func TestAdoptionService_CreateRequest_DuplicateRace(t *testing.T) {
	adoptionRepo := new(MockAdoptionRepository)
	petRepo := new(MockPetRepository)
	svc := newAdoptionService(adoptionRepo, petRepo, nil)

	pet := shelterPet("p1", "s1", "shelter-user")
	petRepo.On("GetByID", "p1").Return(pet, nil).Once()
	// The pre-check sees nothing, the unique index catches the concurrent twin.
	adoptionRepo.On("GetByPetAndUser", "p1", "u1").Return(nil, apperr.NotFound("none")).Once()
	adoptionRepo.On("Create", mock.AnythingOfType("*models.AdoptionRequest")).Return(gorm.ErrDuplicatedKey).Once()
	winner := &models.AdoptionRequest{ID: "r1", PetID: "p1", UserID: "u1", Status: models.AdoptionStatusApproved}
	adoptionRepo.On("GetByPetAndUser", "p1", "u1").Return(winner, nil).Once()

	_, err := svc.CreateRequest(clientUser("u1"), "p1", "racing")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	assert.Contains(t, err.Error(), "approved")
}

func TestAdoptionService_CreateRequest_Rejections(t *testing.T) {
	t.Run("unknown pet", func(t *testing.T) {
		adoptionRepo := new(MockAdoptionRepository)
		petRepo := new(MockPetRepository)
		svc := newAdoptionService(adoptionRepo, petRepo, nil)

		petRepo.On("GetByID", "ghost").Return(nil, apperr.NotFound("no pet")).Once()
		_, err := svc.CreateRequest(clientUser("u1"), "ghost", "")
		assert.True(t, apperr.IsKind(err, apperr.KindValidation))
		assert.Contains(t, err.Error(), "select a pet")
	})

	t.Run("empty pet id", func(t *testing.T) {
		svc := newAdoptionService(new(MockAdoptionRepository), new(MockPetRepository), nil)
		_, err := svc.CreateRequest(clientUser("u1"), "", "")
		assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	})

	t.Run("own pet", func(t *testing.T) {
		adoptionRepo := new(MockAdoptionRepository)
		petRepo := new(MockPetRepository)
		svc := newAdoptionService(adoptionRepo, petRepo, nil)

		ownerID := "u1"
		petRepo.On("GetByID", "p1").Return(&models.Pet{ID: "p1", OwnerID: &ownerID}, nil).Once()
		_, err := svc.CreateRequest(clientUser("u1"), "p1", "")
		assert.True(t, apperr.IsKind(err, apperr.KindValidation))
		assert.Contains(t, err.Error(), "your own pet")
	})

	t.Run("pet from own shelter", func(t *testing.T) {
		adoptionRepo := new(MockAdoptionRepository)
		petRepo := new(MockPetRepository)
		svc := newAdoptionService(adoptionRepo, petRepo, nil)

		petRepo.On("GetByID", "p1").Return(shelterPet("p1", "s1", "u1"), nil).Once()
		_, err := svc.CreateRequest(clientUser("u1"), "p1", "")
		assert.True(t, apperr.IsKind(err, apperr.KindValidation))
		assert.Contains(t, err.Error(), "your own shelter")
	})

	t.Run("non-client roles denied", func(t *testing.T) {
		svc := newAdoptionService(new(MockAdoptionRepository), new(MockPetRepository), nil)

		_, err := svc.CreateRequest(shelterUser("u2"), "p1", "")
		assert.True(t, apperr.IsKind(err, apperr.KindPermission))

		admin := &models.User{ID: "a1", Role: models.RoleAdmin}
		_, err = svc.CreateRequest(admin, "p1", "")
		assert.True(t, apperr.IsKind(err, apperr.KindPermission))

		_, err = svc.CreateRequest(nil, "p1", "")
		assert.True(t, apperr.IsKind(err, apperr.KindAuthentication))
	})
}

func TestAdoptionService_ListRequests_Scoping(t *testing.T) {
	adoptionRepo := new(MockAdoptionRepository)
	svc := newAdoptionService(adoptionRepo, new(MockPetRepository), nil)

	all := []models.AdoptionRequest{{ID: "r1"}, {ID: "r2"}}
	mine := []models.AdoptionRequest{{ID: "r1", UserID: "u1"}}

	adoptionRepo.On("GetAll").Return(all, nil).Once()
	adoptionRepo.On("ListByUser", "u1").Return(mine, nil).Once()

	admin := &models.User{ID: "a1", Role: models.RoleAdmin}
	got, err := svc.ListRequests(admin)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = svc.ListRequests(clientUser("u1"))
	require.NoError(t, err)
	assert.Len(t, got, 1)
	adoptionRepo.AssertExpectations(t)
}

func TestAdoptionService_GetRequest_HidesOthers(t *testing.T) {
	adoptionRepo := new(MockAdoptionRepository)
	svc := newAdoptionService(adoptionRepo, new(MockPetRepository), nil)

	request := &models.AdoptionRequest{ID: "r1", PetID: "p1", UserID: "u1"}
	adoptionRepo.On("GetByID", "r1").Return(request, nil).Twice()

	// Another client gets a not-found, not a forbidden.
	_, err := svc.GetRequest(clientUser("u9"), "r1")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	got, err := svc.GetRequest(clientUser("u1"), "r1")
	require.NoError(t, err)
	assert.Equal(t, "r1", got.ID)
}

func TestAdoptionService_UpdateStatus(t *testing.T) {
	makeRequest := func() *models.AdoptionRequest {
		return &models.AdoptionRequest{
			ID:     "r1",
			PetID:  "p1",
			UserID: "u1",
			Status: models.AdoptionStatusPending,
			Pet:    shelterPet("p1", "s1", "shelter-user"),
		}
	}

	t.Run("shelter behind the pet approves", func(t *testing.T) {
		adoptionRepo := new(MockAdoptionRepository)
		pub := &recordingPublisher{}
		svc := newAdoptionService(adoptionRepo, new(MockPetRepository), pub)

		adoptionRepo.On("GetByID", "r1").Return(makeRequest(), nil).Once()
		adoptionRepo.On("UpdateStatus", "r1", models.AdoptionStatusApproved).Return(nil).Once()

		updated, err := svc.UpdateStatus(shelterUser("shelter-user"), "r1", models.AdoptionStatusApproved)
		require.NoError(t, err)
		assert.Equal(t, models.AdoptionStatusApproved, updated.Status)

		require.Len(t, pub.events, 1)
		assert.Equal(t, "adoption.status_changed", pub.events[0].RoutingKey)
		assert.Equal(t, "approved", pub.events[0].Payload["status"])
	})

	t.Run("admin approves", func(t *testing.T) {
		adoptionRepo := new(MockAdoptionRepository)
		svc := newAdoptionService(adoptionRepo, new(MockPetRepository), nil)

		adoptionRepo.On("GetByID", "r1").Return(makeRequest(), nil).Once()
		adoptionRepo.On("UpdateStatus", "r1", models.AdoptionStatusApproved).Return(nil).Once()

		admin := &models.User{ID: "a1", Role: models.RoleAdmin}
		_, err := svc.UpdateStatus(admin, "r1", models.AdoptionStatusApproved)
		assert.NoError(t, err)
		adoptionRepo.AssertExpectations(t)
	})

	t.Run("stranger denied", func(t *testing.T) {
		adoptionRepo := new(MockAdoptionRepository)
		svc := newAdoptionService(adoptionRepo, new(MockPetRepository), nil)

		adoptionRepo.On("GetByID", "r1").Return(makeRequest(), nil).Once()
		_, err := svc.UpdateStatus(clientUser("u9"), "r1", models.AdoptionStatusApproved)
		assert.True(t, apperr.IsKind(err, apperr.KindPermission))
		adoptionRepo.AssertNotCalled(t, "UpdateStatus")
	})

	t.Run("invalid status", func(t *testing.T) {
		adoptionRepo := new(MockAdoptionRepository)
		svc := newAdoptionService(adoptionRepo, new(MockPetRepository), nil)

		adoptionRepo.On("GetByID", "r1").Return(makeRequest(), nil).Once()
		admin := &models.User{ID: "a1", Role: models.RoleAdmin}
		_, err := svc.UpdateStatus(admin, "r1", "maybe")
		assert.True(t, apperr.IsKind(err, apperr.KindValidation))
		adoptionRepo.AssertNotCalled(t, "UpdateStatus")
	})

	t.Run("unchanged status writes and publishes nothing", func(t *testing.T) {
		adoptionRepo := new(MockAdoptionRepository)
		pub := &recordingPublisher{}
		svc := newAdoptionService(adoptionRepo, new(MockPetRepository), pub)

		adoptionRepo.On("GetByID", "r1").Return(makeRequest(), nil).Once()

		admin := &models.User{ID: "a1", Role: models.RoleAdmin}
		_, err := svc.UpdateStatus(admin, "r1", models.AdoptionStatusPending)
		require.NoError(t, err)
		assert.Empty(t, pub.events)
		adoptionRepo.AssertNotCalled(t, "UpdateStatus")
	})
}

func TestAdoptionService_DeleteRequest(t *testing.T) {
	adoptionRepo := new(MockAdoptionRepository)
	svc := newAdoptionService(adoptionRepo, new(MockPetRepository), nil)

	request := &models.AdoptionRequest{ID: "r1", PetID: "p1", UserID: "u1"}
	adoptionRepo.On("GetByID", "r1").Return(request, nil).Twice()
	adoptionRepo.On("Delete", "r1").Return(nil).Once()

	err := svc.DeleteRequest(clientUser("u9"), "r1")
	assert.True(t, apperr.IsKind(err, apperr.KindPermission))

	assert.NoError(t, svc.DeleteRequest(clientUser("u1"), "r1"))
	adoptionRepo.AssertExpectations(t)
}
