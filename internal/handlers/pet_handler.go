package handlers

import (
	"log"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"petadopt/internal/middleware"
	"petadopt/internal/models"
	"petadopt/internal/services"
	"petadopt/internal/storage"
)

// PetHandler handles HTTP requests for pets. Listing and retrieval are
// public; everything else requires authentication.
type PetHandler struct {
	service  *services.PetService
	store    storage.FileStore
	validate *validator.Validate
}

// NewPetHandler creates a new PetHandler.
func NewPetHandler(service *services.PetService, store storage.FileStore) *PetHandler {
	return &PetHandler{
		service:  service,
		store:    store,
		validate: validator.New(),
	}
}

// RegisterPublicRoutes registers the anonymous-friendly read routes.
func (h *PetHandler) RegisterPublicRoutes(router fiber.Router) {
	petRoutes := router.Group("/pets")
	petRoutes.Get("/", h.HandleGetPets)
	petRoutes.Get("/:id", h.HandleGetPetByID)
}

// RegisterRoutes registers the authenticated pet routes.
func (h *PetHandler) RegisterRoutes(router fiber.Router) {
	petRoutes := router.Group("/pets")
	petRoutes.Post("/", h.HandleCreatePet)
	petRoutes.Put("/:id", h.HandleUpdatePet)
	petRoutes.Delete("/:id", h.HandleDeletePet)
}

// HandleGetPets retrieves all pets.
func (h *PetHandler) HandleGetPets(c *fiber.Ctx) error {
	pets, err := h.service.GetAllPets()
	if err != nil {
		log.Printf("Error getting all pets: %v", err)
		return fail(c, "Could not retrieve pets", err)
	}
	resp := make([]fiber.Map, 0, len(pets))
	for i := range pets {
		resp = append(resp, petResponse(&pets[i], h.store))
	}
	return c.JSON(resp)
}

// HandleGetPetByID retrieves a single pet by its ID.
func (h *PetHandler) HandleGetPetByID(c *fiber.Ctx) error {
	pet, err := h.service.GetPetByID(c.Params("id"))
	if err != nil {
		return fail(c, "Could not retrieve pet", err)
	}
	return c.JSON(petResponse(pet, h.store))
}

// HandleCreatePet creates a new pet. Accepts JSON or multipart form data;
// photos come as the "photos" files of a multipart request and become the
// pet's ordered photo collection.
func (h *PetHandler) HandleCreatePet(c *fiber.Ctx) error {
	pet, uploads, err := h.parsePetRequest(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(pet); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		errorMessages := make(map[string]string)
		for _, e := range validationErrors {
			errorMessages[e.Field()] = "Field '" + e.Field() + "' failed on the '" + e.Tag() + "' tag"
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errorMessages,
		})
	}

	created, err := h.service.CreatePet(middleware.CurrentUser(c), pet, uploads)
	if err != nil {
		log.Printf("Error creating pet: %v", err)
		return fail(c, "Could not create pet", err)
	}
	return c.Status(fiber.StatusCreated).JSON(petResponse(created, h.store))
}

// HandleUpdatePet updates an existing pet. Field semantics follow
// services.PetUpdate: absent fields stay untouched.
func (h *PetHandler) HandleUpdatePet(c *fiber.Ctx) error {
	upd, uploads, err := h.parsePetUpdateRequest(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	pet, err := h.service.UpdatePet(middleware.CurrentUser(c), c.Params("id"), upd, uploads)
	if err != nil {
		log.Printf("Error updating pet %s: %v", c.Params("id"), err)
		return fail(c, "Could not update pet", err)
	}
	return c.JSON(petResponse(pet, h.store))
}

// HandleDeletePet deletes a pet and its photos.
func (h *PetHandler) HandleDeletePet(c *fiber.Ctx) error {
	if err := h.service.DeletePet(middleware.CurrentUser(c), c.Params("id")); err != nil {
		log.Printf("Error deleting pet %s: %v", c.Params("id"), err)
		return fail(c, "Could not delete pet", err)
	}
	return c.JSON(fiber.Map{"message": "Pet deleted successfully"})
}

// parsePetRequest reads a pet from a JSON body or a multipart form.
func (h *PetHandler) parsePetRequest(c *fiber.Ctx) (*models.Pet, []services.Upload, error) {
	if !isMultipart(c) {
		var pet models.Pet
		if err := c.BodyParser(&pet); err != nil {
			return nil, nil, err
		}
		return &pet, nil, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil, err
	}
	pet := &models.Pet{
		Name:        formValue(form.Value, "name"),
		PetType:     formValue(form.Value, "pet_type"),
		Breed:       formValue(form.Value, "breed"),
		AgeUnit:     formValue(form.Value, "age_unit"),
		Size:        formValue(form.Value, "size"),
		Description: formValue(form.Value, "description"),
		Status:      formValue(form.Value, "status"),
	}
	if v := formValue(form.Value, "age"); v != "" {
		age, err := strconv.Atoi(v)
		if err != nil {
			return nil, nil, err
		}
		pet.Age = &age
	}
	if v := formValue(form.Value, "owner_id"); v != "" {
		pet.OwnerID = &v
	}
	if v := formValue(form.Value, "shelter_id"); v != "" {
		pet.ShelterID = &v
	}

	uploads, err := readUploads(form.File["photos"])
	if err != nil {
		return nil, nil, err
	}
	return pet, uploads, nil
}

// parsePetUpdateRequest reads a PetUpdate from a JSON body or multipart form.
// In the multipart case a field is "submitted" when the form carries the key.
func (h *PetHandler) parsePetUpdateRequest(c *fiber.Ctx) (*services.PetUpdate, []services.Upload, error) {
	if !isMultipart(c) {
		var upd services.PetUpdate
		if err := c.BodyParser(&upd); err != nil {
			return nil, nil, err
		}
		return &upd, nil, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil, err
	}
	upd := &services.PetUpdate{
		Name:        formPtr(form.Value, "name"),
		PetType:     formPtr(form.Value, "pet_type"),
		Breed:       formPtr(form.Value, "breed"),
		AgeUnit:     formPtr(form.Value, "age_unit"),
		Size:        formPtr(form.Value, "size"),
		Description: formPtr(form.Value, "description"),
		Status:      formPtr(form.Value, "status"),
		OwnerID:     formPtr(form.Value, "owner_id"),
		ShelterID:   formPtr(form.Value, "shelter_id"),
	}
	if v := formPtr(form.Value, "age"); v != nil {
		age, err := strconv.Atoi(*v)
		if err != nil {
			return nil, nil, err
		}
		upd.Age = &age
	}

	uploads, err := readUploads(form.File["photos"])
	if err != nil {
		return nil, nil, err
	}
	return upd, uploads, nil
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm)
}

func formValue(values map[string][]string, key string) string {
	if v, ok := values[key]; ok && len(v) > 0 {
		return v[0]
	}
	return ""
}

func formPtr(values map[string][]string, key string) *string {
	if v, ok := values[key]; ok && len(v) > 0 {
		return &v[0]
	}
	return nil
}
