package repositories

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"petadopt/internal/apperr"
	"petadopt/internal/models"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{db: db}
}

func (r *GORMUserRepository) Create(user *models.User) error {
	if err := r.db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.Conflict("username or email is already registered").Wrap(err)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *GORMUserRepository) CreateWithShelter(user *models.User, shelter *models.Shelter) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		shelter.UserID = user.ID
		return tx.Create(shelter).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.Conflict("username or email is already registered").Wrap(err)
		}
		return fmt.Errorf("failed to create user with shelter: %w", err)
	}
	return nil
}

func (r *GORMUserRepository) GetAll() ([]models.User, error) {
	var users []models.User
	if err := r.db.Preload("Shelter").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to get all users: %w", err)
	}
	return users, nil
}

func (r *GORMUserRepository) GetByID(id string) (*models.User, error) {
	var user models.User
	if err := r.db.Preload("Shelter").First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user with ID %s not found", id)
		}
		return nil, fmt.Errorf("failed to get user by ID %s: %w", id, err)
	}
	return &user, nil
}

func (r *GORMUserRepository) GetByUsername(username string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user with username %s not found", username)
		}
		return nil, fmt.Errorf("failed to get user by username %s: %w", username, err)
	}
	return &user, nil
}

func (r *GORMUserRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user with email %s not found", email)
		}
		return nil, fmt.Errorf("failed to get user by email %s: %w", email, err)
	}
	return &user, nil
}

func (r *GORMUserRepository) Update(user *models.User) error {
	res := r.db.Save(user)
	if res.Error != nil {
		return fmt.Errorf("failed to update user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("user with ID %s not found for update", user.ID)
	}
	return nil
}

// Delete removes a user for real together with everything hanging off the
// account: their adoption requests, their pets (and the pets' photos and
// incoming requests), and their shelter with its pets. The deletes are hard --
// a soft-deleted row would keep holding the username/email unique indexes and
// the pets of a gone owner would stay publicly listed.
func (r *GORMUserRepository) Delete(id string) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Preload("Shelter").First(&user, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("user with ID %s not found for deletion", id)
			}
			return err
		}

		petQuery := tx.Unscoped().Model(&models.Pet{}).Where("owner_id = ?", id)
		if user.Shelter != nil {
			petQuery = tx.Unscoped().Model(&models.Pet{}).
				Where("owner_id = ? OR shelter_id = ?", id, user.Shelter.ID)
		}
		var petIDs []string
		if err := petQuery.Pluck("id", &petIDs).Error; err != nil {
			return err
		}

		if err := tx.Where("user_id = ?", id).Delete(&models.AdoptionRequest{}).Error; err != nil {
			return err
		}
		if len(petIDs) > 0 {
			if err := tx.Where("pet_id IN ?", petIDs).Delete(&models.AdoptionRequest{}).Error; err != nil {
				return err
			}
			if err := tx.Where("pet_id IN ?", petIDs).Delete(&models.PetPhoto{}).Error; err != nil {
				return err
			}
			if err := tx.Unscoped().Where("id IN ?", petIDs).Delete(&models.Pet{}).Error; err != nil {
				return err
			}
		}
		if user.Shelter != nil {
			if err := tx.Unscoped().Delete(&models.Shelter{}, "id = ?", user.Shelter.ID).Error; err != nil {
				return err
			}
		}
		return tx.Unscoped().Delete(&models.User{}, "id = ?", id).Error
	})
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
