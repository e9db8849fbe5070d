package handlers

import (
	"log"
	"mime/multipart"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"petadopt/internal/middleware"
	"petadopt/internal/models"
	"petadopt/internal/services"
	"petadopt/internal/storage"
)

// ShelterHandler handles HTTP requests for shelters. Listing and retrieval
// are public; mutations are admin operations.
type ShelterHandler struct {
	service  *services.ShelterService
	store    storage.FileStore
	validate *validator.Validate
}

// NewShelterHandler creates a new ShelterHandler.
func NewShelterHandler(service *services.ShelterService, store storage.FileStore) *ShelterHandler {
	return &ShelterHandler{
		service:  service,
		store:    store,
		validate: validator.New(),
	}
}

// RegisterPublicRoutes registers the anonymous-friendly read routes.
func (h *ShelterHandler) RegisterPublicRoutes(router fiber.Router) {
	shelterRoutes := router.Group("/shelters")
	shelterRoutes.Get("/", h.HandleGetShelters)
	shelterRoutes.Get("/:id", h.HandleGetShelterByID)
}

// RegisterRoutes registers the authenticated shelter routes.
func (h *ShelterHandler) RegisterRoutes(router fiber.Router) {
	shelterRoutes := router.Group("/shelters")
	shelterRoutes.Post("/", h.HandleCreateShelter)
	shelterRoutes.Put("/:id", h.HandleUpdateShelter)
	shelterRoutes.Delete("/:id", h.HandleDeleteShelter)
}

// HandleGetShelters retrieves all shelters.
func (h *ShelterHandler) HandleGetShelters(c *fiber.Ctx) error {
	shelters, err := h.service.GetAllShelters()
	if err != nil {
		log.Printf("Error getting all shelters: %v", err)
		return fail(c, "Could not retrieve shelters", err)
	}
	resp := make([]fiber.Map, 0, len(shelters))
	for i := range shelters {
		resp = append(resp, shelterResponse(&shelters[i], h.store))
	}
	return c.JSON(resp)
}

// HandleGetShelterByID retrieves a single shelter by its ID.
func (h *ShelterHandler) HandleGetShelterByID(c *fiber.Ctx) error {
	shelter, err := h.service.GetShelterByID(c.Params("id"))
	if err != nil {
		return fail(c, "Could not retrieve shelter", err)
	}
	return c.JSON(shelterResponse(shelter, h.store))
}

// HandleCreateShelter creates a shelter record directly (admin only).
func (h *ShelterHandler) HandleCreateShelter(c *fiber.Ctx) error {
	shelter, photo, err := h.parseShelterRequest(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(shelter); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}

	created, err := h.service.CreateShelter(middleware.CurrentUser(c), shelter, photo)
	if err != nil {
		log.Printf("Error creating shelter: %v", err)
		return fail(c, "Could not create shelter", err)
	}
	return c.Status(fiber.StatusCreated).JSON(shelterResponse(created, h.store))
}

// HandleUpdateShelter updates a shelter (admin only). A new photo upload is
// normalized; without one the stored photo stays untouched.
func (h *ShelterHandler) HandleUpdateShelter(c *fiber.Ctx) error {
	upd, err := h.parseShelterUpdateRequest(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	shelter, err := h.service.UpdateShelter(middleware.CurrentUser(c), c.Params("id"), upd)
	if err != nil {
		log.Printf("Error updating shelter %s: %v", c.Params("id"), err)
		return fail(c, "Could not update shelter", err)
	}
	return c.JSON(shelterResponse(shelter, h.store))
}

// HandleDeleteShelter deletes a shelter (admin only).
func (h *ShelterHandler) HandleDeleteShelter(c *fiber.Ctx) error {
	if err := h.service.DeleteShelter(middleware.CurrentUser(c), c.Params("id")); err != nil {
		log.Printf("Error deleting shelter %s: %v", c.Params("id"), err)
		return fail(c, "Could not delete shelter", err)
	}
	return c.JSON(fiber.Map{"message": "Shelter deleted successfully"})
}

func (h *ShelterHandler) parseShelterRequest(c *fiber.Ctx) (*models.Shelter, *services.Upload, error) {
	if !isMultipart(c) {
		var shelter models.Shelter
		if err := c.BodyParser(&shelter); err != nil {
			return nil, nil, err
		}
		return &shelter, nil, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil, err
	}
	shelter := &models.Shelter{
		UserID:  formValue(form.Value, "user_id"),
		Name:    formValue(form.Value, "name"),
		Address: formValue(form.Value, "address"),
	}
	if v := formValue(form.Value, "verified"); v != "" {
		verified, err := strconv.ParseBool(v)
		if err != nil {
			return nil, nil, err
		}
		shelter.Verified = verified
	}
	photo, err := singleUpload(form.File["photo"])
	if err != nil {
		return nil, nil, err
	}
	return shelter, photo, nil
}

func (h *ShelterHandler) parseShelterUpdateRequest(c *fiber.Ctx) (*services.ShelterUpdate, error) {
	if !isMultipart(c) {
		var upd services.ShelterUpdate
		if err := c.BodyParser(&upd); err != nil {
			return nil, err
		}
		return &upd, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}
	upd := &services.ShelterUpdate{
		Name:    formPtr(form.Value, "name"),
		Address: formPtr(form.Value, "address"),
	}
	if v := formPtr(form.Value, "verified"); v != nil {
		verified, err := strconv.ParseBool(*v)
		if err != nil {
			return nil, err
		}
		upd.Verified = &verified
	}
	photo, err := singleUpload(form.File["photo"])
	if err != nil {
		return nil, err
	}
	upd.Photo = photo
	return upd, nil
}

// singleUpload reads the first file of a form field, or nil when absent.
func singleUpload(files []*multipart.FileHeader) (*services.Upload, error) {
	if len(files) == 0 {
		return nil, nil
	}
	uploads, err := readUploads(files[:1])
	if err != nil {
		return nil, err
	}
	return &uploads[0], nil
}
