package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"petadopt/internal/middleware"
	"petadopt/internal/services"
)

// UserHandler handles HTTP requests for user administration and the
// self-profile endpoint.
type UserHandler struct {
	service *services.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service *services.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// RegisterRoutes registers the user routes with the Fiber app.
func (h *UserHandler) RegisterRoutes(router fiber.Router) {
	userRoutes := router.Group("/users")
	userRoutes.Get("/me", h.HandleMe)
	userRoutes.Get("/", h.HandleGetUsers)
	userRoutes.Get("/:id", h.HandleGetUserByID)
	userRoutes.Put("/:id", h.HandleUpdateUser)
	userRoutes.Delete("/:id", h.HandleDeleteUser)
}

// HandleMe returns the acting user's own profile.
func (h *UserHandler) HandleMe(c *fiber.Ctx) error {
	user, err := h.service.Me(middleware.CurrentUser(c))
	if err != nil {
		return fail(c, "Could not retrieve profile", err)
	}
	return c.JSON(user)
}

// HandleGetUsers lists all users (admin only).
func (h *UserHandler) HandleGetUsers(c *fiber.Ctx) error {
	users, err := h.service.GetAllUsers(middleware.CurrentUser(c))
	if err != nil {
		log.Printf("Error listing users: %v", err)
		return fail(c, "Could not retrieve users", err)
	}
	return c.JSON(users)
}

// HandleGetUserByID retrieves a user (admin, or self).
func (h *UserHandler) HandleGetUserByID(c *fiber.Ctx) error {
	user, err := h.service.GetUserByID(middleware.CurrentUser(c), c.Params("id"))
	if err != nil {
		return fail(c, "Could not retrieve user", err)
	}
	return c.JSON(user)
}

// HandleUpdateUser updates a user (admin only, including role changes).
func (h *UserHandler) HandleUpdateUser(c *fiber.Ctx) error {
	var upd services.UserUpdate
	if err := c.BodyParser(&upd); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	user, err := h.service.UpdateUser(middleware.CurrentUser(c), c.Params("id"), &upd)
	if err != nil {
		log.Printf("Error updating user %s: %v", c.Params("id"), err)
		return fail(c, "Could not update user", err)
	}
	return c.JSON(user)
}

// HandleDeleteUser deletes a user and, through the cascade, their shelter
// (admin only).
func (h *UserHandler) HandleDeleteUser(c *fiber.Ctx) error {
	if err := h.service.DeleteUser(middleware.CurrentUser(c), c.Params("id")); err != nil {
		log.Printf("Error deleting user %s: %v", c.Params("id"), err)
		return fail(c, "Could not delete user", err)
	}
	return c.JSON(fiber.Map{"message": "User deleted successfully"})
}
