package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"petadopt/internal/middleware"
	"petadopt/internal/services"
)

// AdoptionHandler handles HTTP requests for adoption requests. Every route
// requires authentication.
type AdoptionHandler struct {
	service *services.AdoptionService
}

// NewAdoptionHandler creates a new AdoptionHandler.
func NewAdoptionHandler(service *services.AdoptionService) *AdoptionHandler {
	return &AdoptionHandler{service: service}
}

// RegisterRoutes registers the adoption request routes with the Fiber app.
func (h *AdoptionHandler) RegisterRoutes(router fiber.Router) {
	requestRoutes := router.Group("/adoption-requests")
	requestRoutes.Get("/", h.HandleListRequests)
	requestRoutes.Get("/:id", h.HandleGetRequestByID)
	requestRoutes.Post("/", h.HandleCreateRequest)
	requestRoutes.Put("/:id", h.HandleUpdateRequest)
	requestRoutes.Patch("/:id/status", h.HandleUpdateRequestStatus)
	requestRoutes.Delete("/:id", h.HandleDeleteRequest)
}

// HandleListRequests lists adoption requests: every request for admins, only
// the caller's own requests for everyone else.
func (h *AdoptionHandler) HandleListRequests(c *fiber.Ctx) error {
	requests, err := h.service.ListRequests(middleware.CurrentUser(c))
	if err != nil {
		log.Printf("Error listing adoption requests: %v", err)
		return fail(c, "Could not retrieve adoption requests", err)
	}
	resp := make([]fiber.Map, 0, len(requests))
	for i := range requests {
		resp = append(resp, adoptionResponse(&requests[i]))
	}
	return c.JSON(resp)
}

// HandleGetRequestByID retrieves a single adoption request.
func (h *AdoptionHandler) HandleGetRequestByID(c *fiber.Ctx) error {
	request, err := h.service.GetRequest(middleware.CurrentUser(c), c.Params("id"))
	if err != nil {
		return fail(c, "Could not retrieve adoption request", err)
	}
	return c.JSON(adoptionResponse(request))
}

// CreateAdoptionRequest represents the request body for filing a request.
type CreateAdoptionRequest struct {
	PetID   string `json:"pet_id"`
	Message string `json:"message"`
}

// HandleCreateRequest files an adoption request for the acting client.
func (h *AdoptionHandler) HandleCreateRequest(c *fiber.Ctx) error {
	var req CreateAdoptionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	request, err := h.service.CreateRequest(middleware.CurrentUser(c), req.PetID, req.Message)
	if err != nil {
		log.Printf("Error creating adoption request: %v", err)
		return fail(c, "Could not create adoption request", err)
	}
	return c.Status(fiber.StatusCreated).JSON(adoptionResponse(request))
}

// HandleUpdateRequest updates an adoption request's message and/or status.
func (h *AdoptionHandler) HandleUpdateRequest(c *fiber.Ctx) error {
	var upd services.AdoptionUpdate
	if err := c.BodyParser(&upd); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	request, err := h.service.UpdateRequest(middleware.CurrentUser(c), c.Params("id"), &upd)
	if err != nil {
		log.Printf("Error updating adoption request %s: %v", c.Params("id"), err)
		return fail(c, "Could not update adoption request", err)
	}
	return c.JSON(adoptionResponse(request))
}

// UpdateStatusRequest represents the request body for a status change.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// HandleUpdateRequestStatus changes only the status of a request.
func (h *AdoptionHandler) HandleUpdateRequestStatus(c *fiber.Ctx) error {
	var req UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	request, err := h.service.UpdateStatus(middleware.CurrentUser(c), c.Params("id"), req.Status)
	if err != nil {
		log.Printf("Error updating adoption request status %s: %v", c.Params("id"), err)
		return fail(c, "Could not update adoption request status", err)
	}
	return c.JSON(adoptionResponse(request))
}

// HandleDeleteRequest deletes an adoption request.
func (h *AdoptionHandler) HandleDeleteRequest(c *fiber.Ctx) error {
	if err := h.service.DeleteRequest(middleware.CurrentUser(c), c.Params("id")); err != nil {
		log.Printf("Error deleting adoption request %s: %v", c.Params("id"), err)
		return fail(c, "Could not delete adoption request", err)
	}
	return c.JSON(fiber.Map{"message": "Adoption request deleted successfully"})
}
