package services

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"petadopt/internal/apperr"
	"petadopt/internal/authz"
	"petadopt/internal/models"
	"petadopt/internal/repositories"
)

// UserUpdate carries the fields an admin may change on a user. Role changes
// are an admin action; roles are otherwise immutable after registration.
type UserUpdate struct {
	Username *string      `json:"username"`
	Email    *string      `json:"email"`
	Phone    *string      `json:"phone"`
	Role     *models.Role `json:"role"`
	Password *string      `json:"password"`
}

// UserService handles user administration and profile reads.
type UserService struct {
	userRepo repositories.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repositories.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// Me returns the actor's own profile.
func (s *UserService) Me(actor *models.User) (*models.User, error) {
	if actor == nil {
		return nil, apperr.Authentication("authentication required")
	}
	return s.userRepo.GetByID(actor.ID)
}

// GetAllUsers lists every account. Admin only.
func (s *UserService) GetAllUsers(actor *models.User) ([]models.User, error) {
	if actor == nil {
		return nil, apperr.Authentication("authentication required")
	}
	if actor.Role != models.RoleAdmin {
		return nil, apperr.Permission("only administrators can list users")
	}
	return s.userRepo.GetAll()
}

// GetUserByID returns a user profile: admins can read anyone, everyone else
// only themselves.
func (s *UserService) GetUserByID(actor *models.User, id string) (*models.User, error) {
	if actor == nil {
		return nil, apperr.Authentication("authentication required")
	}
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !authz.Authorize(actor, authz.ActionRead, user) {
		return nil, apperr.Permission("you can only read your own profile")
	}
	return user, nil
}

// UpdateUser applies upd to the user. Admin only.
func (s *UserService) UpdateUser(actor *models.User, id string, upd *UserUpdate) (*models.User, error) {
	if actor == nil {
		return nil, apperr.Authentication("authentication required")
	}
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !authz.Authorize(actor, authz.ActionUpdate, user) {
		return nil, apperr.Permission("only administrators can modify users")
	}

	if upd.Username != nil {
		user.Username = *upd.Username
	}
	if upd.Email != nil {
		user.Email = *upd.Email
	}
	if upd.Phone != nil {
		user.Phone = *upd.Phone
	}
	if upd.Role != nil {
		if !models.ValidRole(*upd.Role) {
			return nil, apperr.Validation("unknown role: %s", *upd.Role)
		}
		user.Role = *upd.Role
	}
	if upd.Password != nil {
		if err := validatePassword(*upd.Password); err != nil {
			return nil, err
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*upd.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.Password = string(hashed)
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser removes a user and, through the ownership cascade, their
// shelter, their pets and any adoption requests involving them. Admin only.
func (s *UserService) DeleteUser(actor *models.User, id string) error {
	if actor == nil {
		return apperr.Authentication("authentication required")
	}
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return err
	}
	if !authz.Authorize(actor, authz.ActionDelete, user) {
		return apperr.Permission("only administrators can delete users")
	}
	return s.userRepo.Delete(id)
}
