package services_test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"petadopt/internal/apperr"
	"petadopt/internal/models"
	"petadopt/internal/services"
)

// MockPetRepository is a mock implementation of repositories.PetRepository
type MockPetRepository struct {
	mock.Mock
}

func (m *MockPetRepository) GetAll() ([]models.Pet, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Pet), args.Error(1)
}

func (m *MockPetRepository) GetByID(id string) (*models.Pet, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Pet), args.Error(1)
}

func (m *MockPetRepository) Create(pet *models.Pet) error {
	args := m.Called(pet)
	return args.Error(0)
}

func (m *MockPetRepository) Update(pet *models.Pet) error {
	args := m.Called(pet)
	return args.Error(0)
}

func (m *MockPetRepository) Delete(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockPetRepository) AttachPhotos(petID string, photos []models.PetPhoto) error {
	args := m.Called(petID, photos)
	return args.Error(0)
}

// MockShelterRepository is a mock implementation of repositories.ShelterRepository
type MockShelterRepository struct {
	mock.Mock
}

func (m *MockShelterRepository) GetAll() ([]models.Shelter, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Shelter), args.Error(1)
}

func (m *MockShelterRepository) GetByID(id string) (*models.Shelter, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Shelter), args.Error(1)
}

func (m *MockShelterRepository) GetByUserID(userID string) (*models.Shelter, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Shelter), args.Error(1)
}

func (m *MockShelterRepository) Create(shelter *models.Shelter) error {
	args := m.Called(shelter)
	return args.Error(0)
}

func (m *MockShelterRepository) Update(shelter *models.Shelter) error {
	args := m.Called(shelter)
	return args.Error(0)
}

func (m *MockShelterRepository) Delete(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

// fakeStore keeps blobs in memory so tests can check what was saved and
// removed without touching the filesystem.
type fakeStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{blobs: map[string][]byte{}}
}

func (s *fakeStore) Save(relPath string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[relPath] = data
	return nil
}

func (s *fakeStore) Remove(relPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, relPath)
	return nil
}

func (s *fakeStore) URL(relPath string) string {
	return "http://test/media/" + relPath
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// storedPetID is shaped like the uuid primary keys the repositories hand out.
const storedPetID = "7f1aa2b4-93c6-4a1f-9d8e-2b5c4d6e8f0a"

func clientUser(id string) *models.User {
	return &models.User{ID: id, Username: "client-" + id, Role: models.RoleClient}
}

func shelterUser(id string) *models.User {
	return &models.User{ID: id, Username: "shelter-" + id, Role: models.RoleShelter}
}

func newPetService(petRepo *MockPetRepository, shelterRepo *MockShelterRepository, store *fakeStore) *services.PetService {
	photos := services.NewPhotoManager(petRepo, store)
	return services.NewPetService(petRepo, shelterRepo, photos)
}

func TestPetService_CreatePet_ClientBecomesOwner(t *testing.T) {
	petRepo := new(MockPetRepository)
	shelterRepo := new(MockShelterRepository)
	svc := newPetService(petRepo, shelterRepo, newFakeStore())

	petRepo.On("Create", mock.AnythingOfType("*models.Pet")).Return(nil).Once()

	actor := clientUser("u1")
	// Whatever the client submits as ownership is overwritten.
	bogus := "someone-else"
	pet := &models.Pet{Name: "Firulais", PetType: models.PetTypeDog, OwnerID: &bogus}

	created, err := svc.CreatePet(actor, pet, nil)
	require.NoError(t, err)
	require.NotNil(t, created.OwnerID)
	assert.Equal(t, "u1", *created.OwnerID)
	assert.Nil(t, created.ShelterID)
	petRepo.AssertExpectations(t)
}

func TestPetService_CreatePet_ShelterUserAssignsOwnShelter(t *testing.T) {
	petRepo := new(MockPetRepository)
	shelterRepo := new(MockShelterRepository)
	svc := newPetService(petRepo, shelterRepo, newFakeStore())

	shelter := &models.Shelter{ID: "s1", UserID: "u2", Name: "Happy Paws"}
	shelterRepo.On("GetByUserID", "u2").Return(shelter, nil).Once()
	petRepo.On("Create", mock.AnythingOfType("*models.Pet")).Return(nil).Once()

	created, err := svc.CreatePet(shelterUser("u2"), &models.Pet{Name: "Michi", PetType: models.PetTypeCat}, nil)
	require.NoError(t, err)
	require.NotNil(t, created.ShelterID)
	assert.Equal(t, "s1", *created.ShelterID)
	assert.Nil(t, created.OwnerID)
	shelterRepo.AssertExpectations(t)
}

func TestPetService_CreatePet_ShelterUserWithoutShelter(t *testing.T) {
	petRepo := new(MockPetRepository)
	shelterRepo := new(MockShelterRepository)
	svc := newPetService(petRepo, shelterRepo, newFakeStore())

	shelterRepo.On("GetByUserID", "u2").Return(nil, apperr.NotFound("no shelter")).Once()

	_, err := svc.CreatePet(shelterUser("u2"), &models.Pet{Name: "Michi", PetType: models.PetTypeCat}, nil)
	assert.True(t, apperr.IsKind(err, apperr.KindConfiguration))
	petRepo.AssertNotCalled(t, "Create")
}

func TestPetService_CreatePet_AdminCannotCreate(t *testing.T) {
	petRepo := new(MockPetRepository)
	shelterRepo := new(MockShelterRepository)
	svc := newPetService(petRepo, shelterRepo, newFakeStore())

	admin := &models.User{ID: "a1", Role: models.RoleAdmin}
	_, err := svc.CreatePet(admin, &models.Pet{Name: "Rex", PetType: models.PetTypeDog}, nil)
	assert.True(t, apperr.IsKind(err, apperr.KindPermission))

	_, err = svc.CreatePet(nil, &models.Pet{Name: "Rex", PetType: models.PetTypeDog}, nil)
	assert.True(t, apperr.IsKind(err, apperr.KindAuthentication))
}

func TestPetService_CreatePet_WithPhotos(t *testing.T) {
	petRepo := new(MockPetRepository)
	shelterRepo := new(MockShelterRepository)
	store := newFakeStore()
	svc := newPetService(petRepo, shelterRepo, store)

	petRepo.On("Create", mock.AnythingOfType("*models.Pet")).Return(nil).Once()

	files := []services.Upload{
		{Name: "front.png", Data: pngBytes(t, 10, 10)},
		{Name: "side.png", Data: pngBytes(t, 20, 20)},
		{Name: "back.png", Data: pngBytes(t, 30, 30)},
	}
	created, err := svc.CreatePet(clientUser("u1"), &models.Pet{Name: "Firulais", PetType: models.PetTypeDog}, files)
	require.NoError(t, err)
	require.Len(t, created.Photos, 3)

	// First file is the primary, the rest follow in submission order. Stored
	// names come from the uploaded file names, always re-extensioned to .jpg.
	primaries := 0
	for i, p := range created.Photos {
		assert.Equal(t, i, p.Order)
		assert.Equal(t, ".jpg", p.Photo[len(p.Photo)-4:])
		if p.IsPrimary {
			primaries++
			assert.Equal(t, 0, i)
		}
	}
	assert.Equal(t, 1, primaries)
	assert.Contains(t, created.Photos[0].Photo, "pets/dog/front_")
	assert.Contains(t, created.Photos[1].Photo, "pets/dog/side_")
	assert.Equal(t, 3, store.count())
}

func TestPetService_CreatePet_BadImageAbortsEverything(t *testing.T) {
	petRepo := new(MockPetRepository)
	shelterRepo := new(MockShelterRepository)
	store := newFakeStore()
	svc := newPetService(petRepo, shelterRepo, store)

	files := []services.Upload{
		{Name: "good.png", Data: pngBytes(t, 10, 10)},
		{Name: "bad.png", Data: []byte("this is not an image")},
	}
	_, err := svc.CreatePet(clientUser("u1"), &models.Pet{Name: "Firulais", PetType: models.PetTypeDog}, files)
	assert.True(t, apperr.IsKind(err, apperr.KindDecode))

	// Nothing persisted, and the blob written before the failure is gone.
	petRepo.AssertNotCalled(t, "Create")
	assert.Equal(t, 0, store.count())
}

func TestPetService_CreatePet_DatabaseFailureDiscardsBlobs(t *testing.T) {
	petRepo := new(MockPetRepository)
	shelterRepo := new(MockShelterRepository)
	store := newFakeStore()
	svc := newPetService(petRepo, shelterRepo, store)

	petRepo.On("Create", mock.AnythingOfType("*models.Pet")).Return(assert.AnError).Once()

	files := []services.Upload{{Name: "front.png", Data: pngBytes(t, 10, 10)}}
	_, err := svc.CreatePet(clientUser("u1"), &models.Pet{Name: "Firulais", PetType: models.PetTypeDog}, files)
	assert.Error(t, err)
	assert.Equal(t, 0, store.count())
}

func TestPetService_UpdatePet_OwnershipChangeGuard(t *testing.T) {
	ownerID := "u1"
	makePet := func() *models.Pet {
		return &models.Pet{ID: storedPetID, Name: "Firulais", PetType: models.PetTypeDog, OwnerID: &ownerID}
	}

	t.Run("non-admin cannot move the pet to another owner", func(t *testing.T) {
		petRepo := new(MockPetRepository)
		svc := newPetService(petRepo, new(MockShelterRepository), newFakeStore())
		petRepo.On("GetByID", storedPetID).Return(makePet(), nil).Once()

		other := "u9"
		_, err := svc.UpdatePet(clientUser("u1"), storedPetID, &services.PetUpdate{OwnerID: &other}, nil)
		assert.True(t, apperr.IsKind(err, apperr.KindPermission))
		petRepo.AssertNotCalled(t, "Update")
	})

	t.Run("resubmitting the current owner is fine", func(t *testing.T) {
		petRepo := new(MockPetRepository)
		svc := newPetService(petRepo, new(MockShelterRepository), newFakeStore())
		petRepo.On("GetByID", storedPetID).Return(makePet(), nil).Once()
		petRepo.On("Update", mock.AnythingOfType("*models.Pet")).Return(nil).Once()

		same := "u1"
		name := "Firu"
		updated, err := svc.UpdatePet(clientUser("u1"), storedPetID, &services.PetUpdate{OwnerID: &same, Name: &name}, nil)
		require.NoError(t, err)
		assert.Equal(t, "Firu", updated.Name)
	})

	t.Run("admin may reassign", func(t *testing.T) {
		petRepo := new(MockPetRepository)
		svc := newPetService(petRepo, new(MockShelterRepository), newFakeStore())
		petRepo.On("GetByID", storedPetID).Return(makePet(), nil).Once()
		petRepo.On("Update", mock.AnythingOfType("*models.Pet")).Return(nil).Once()

		admin := &models.User{ID: "a1", Role: models.RoleAdmin}
		other := "u9"
		updated, err := svc.UpdatePet(admin, storedPetID, &services.PetUpdate{OwnerID: &other}, nil)
		require.NoError(t, err)
		assert.Equal(t, "u9", *updated.OwnerID)
	})

	t.Run("admin cannot clear both sides", func(t *testing.T) {
		petRepo := new(MockPetRepository)
		svc := newPetService(petRepo, new(MockShelterRepository), newFakeStore())
		petRepo.On("GetByID", storedPetID).Return(makePet(), nil).Once()

		admin := &models.User{ID: "a1", Role: models.RoleAdmin}
		empty := ""
		_, err := svc.UpdatePet(admin, storedPetID, &services.PetUpdate{OwnerID: &empty}, nil)
		assert.True(t, apperr.IsKind(err, apperr.KindValidation))
		petRepo.AssertNotCalled(t, "Update")
	})
}

func TestPetService_UpdatePet_FieldDomains(t *testing.T) {
	ownerID := "u1"
	makePet := func() *models.Pet {
		return &models.Pet{ID: storedPetID, Name: "Firulais", PetType: models.PetTypeDog, OwnerID: &ownerID}
	}

	tests := []struct {
		name string
		upd  services.PetUpdate
	}{
		{"pet type outside the domain", services.PetUpdate{PetType: strPtr("dragon")}},
		{"age unit outside the domain", services.PetUpdate{AgeUnit: strPtr("weeks")}},
		{"name cleared", services.PetUpdate{Name: strPtr("")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			petRepo := new(MockPetRepository)
			svc := newPetService(petRepo, new(MockShelterRepository), newFakeStore())
			petRepo.On("GetByID", storedPetID).Return(makePet(), nil).Once()

			_, err := svc.UpdatePet(clientUser("u1"), storedPetID, &tt.upd, nil)
			assert.True(t, apperr.IsKind(err, apperr.KindValidation), "expected validation error, got %v", err)
			petRepo.AssertNotCalled(t, "Update")
		})
	}
}

func strPtr(s string) *string { return &s }

func TestPetService_UpdatePet_StrangerDenied(t *testing.T) {
	petRepo := new(MockPetRepository)
	svc := newPetService(petRepo, new(MockShelterRepository), newFakeStore())

	ownerID := "u1"
	petRepo.On("GetByID", "p1").Return(&models.Pet{ID: "p1", OwnerID: &ownerID}, nil).Once()

	name := "Stolen"
	_, err := svc.UpdatePet(clientUser("u9"), "p1", &services.PetUpdate{Name: &name}, nil)
	assert.True(t, apperr.IsKind(err, apperr.KindPermission))
}

func TestPetService_UpdatePet_NewPhotosTakePrimary(t *testing.T) {
	petRepo := new(MockPetRepository)
	store := newFakeStore()
	svc := newPetService(petRepo, new(MockShelterRepository), store)

	ownerID := "u1"
	pet := &models.Pet{
		ID:      storedPetID,
		Name:    "Firulais",
		PetType: models.PetTypeDog,
		OwnerID: &ownerID,
		Photos: []models.PetPhoto{
			{ID: "ph1", PetID: storedPetID, Photo: "pets/dog/old.jpg", IsPrimary: true, Order: 0},
		},
	}
	petRepo.On("GetByID", storedPetID).Return(pet, nil).Once()
	petRepo.On("Update", mock.AnythingOfType("*models.Pet")).Return(nil).Once()
	petRepo.On("AttachPhotos", storedPetID, mock.AnythingOfType("[]models.PetPhoto")).Return(nil).Once()

	files := []services.Upload{{Name: "new.png", Data: pngBytes(t, 10, 10)}}
	updated, err := svc.UpdatePet(clientUser("u1"), storedPetID, &services.PetUpdate{}, files)
	require.NoError(t, err)
	require.Len(t, updated.Photos, 2)

	// The old photo survives but loses its primary flag to the new one.
	assert.False(t, updated.Photos[0].IsPrimary)
	assert.True(t, updated.Photos[1].IsPrimary)
	petRepo.AssertExpectations(t)
}

func TestPetService_DeletePet(t *testing.T) {
	petRepo := new(MockPetRepository)
	store := newFakeStore()
	svc := newPetService(petRepo, new(MockShelterRepository), store)

	require.NoError(t, store.Save("pets/dog/gone.jpg", []byte("jpeg")))

	ownerID := "u1"
	pet := &models.Pet{
		ID:      "p1",
		OwnerID: &ownerID,
		Photos:  []models.PetPhoto{{ID: "ph1", PetID: "p1", Photo: "pets/dog/gone.jpg", IsPrimary: true}},
	}
	petRepo.On("GetByID", "p1").Return(pet, nil).Twice()
	petRepo.On("Delete", "p1").Return(nil).Once()

	// A stranger cannot delete.
	err := svc.DeletePet(clientUser("u9"), "p1")
	assert.True(t, apperr.IsKind(err, apperr.KindPermission))

	// The owner can, and the blobs go with the record.
	require.NoError(t, svc.DeletePet(clientUser("u1"), "p1"))
	assert.Equal(t, 0, store.count())
	petRepo.AssertExpectations(t)
}
