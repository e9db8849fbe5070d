package middleware

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"petadopt/internal/models"
	"petadopt/internal/services"
)

const currentUserKey = "currentUser"

// AuthRequired is a Fiber middleware that rejects requests without a valid
// access token and stores the acting user in the request locals.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := userFromHeader(c, authService)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
				"error":   err.Error(),
			})
		}
		if user == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header is required",
			})
		}
		c.Locals(currentUserKey, user)
		return c.Next()
	}
}

// AuthOptional parses the access token when one is present and continues as
// anonymous otherwise. Used on public read paths where invalid credentials
// degrade to anonymous rather than failing the request.
func AuthOptional(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := userFromHeader(c, authService)
		if err != nil {
			log.Printf("Ignoring invalid token on public path: %v", err)
		} else if user != nil {
			c.Locals(currentUserKey, user)
		}
		return c.Next()
	}
}

// CurrentUser returns the acting user stored by the auth middleware, or nil
// for anonymous requests.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(currentUserKey).(*models.User)
	return user
}

func userFromHeader(c *fiber.Ctx, authService *services.AuthService) (*models.User, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return nil, nil
	}

	// Expected format: "Bearer <token>"
	parts := strings.SplitN(authHeader, " ", 2)
	if !(len(parts) == 2 && parts[0] == "Bearer") {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Authorization header format must be 'Bearer <token>'")
	}

	claims, err := authService.ValidateToken(parts[1])
	if err != nil {
		return nil, err
	}
	return services.UserFromClaims(claims), nil
}
