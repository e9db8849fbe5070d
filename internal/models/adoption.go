package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Adoption request statuses.
const (
	AdoptionStatusPending   = "pending"
	AdoptionStatusApproved  = "approved"
	AdoptionStatusRejected  = "rejected"
	AdoptionStatusCompleted = "completed"
)

// ValidAdoptionStatus reports whether s is a known adoption request status.
func ValidAdoptionStatus(s string) bool {
	switch s {
	case AdoptionStatusPending, AdoptionStatusApproved, AdoptionStatusRejected, AdoptionStatusCompleted:
		return true
	}
	return false
}

// AdoptionRequest links a client user to a pet they want to adopt. The
// composite unique index closes the race between concurrent duplicate
// submissions for the same (pet, user) pair. Requests delete for real, no
// soft-delete column: a lingering row would keep holding the unique index and
// block the user from ever re-filing for the same pet.
type AdoptionRequest struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	PetID     string    `json:"pet_id" gorm:"uniqueIndex:idx_adoption_pet_user;type:varchar(36)" validate:"required"`
	Pet       *Pet      `json:"pet,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	UserID    string    `json:"user_id" gorm:"uniqueIndex:idx_adoption_pet_user;type:varchar(36)"`
	User      *User     `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Message   string    `json:"message"`
	Status    string    `json:"status" gorm:"type:varchar(20);default:pending"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *AdoptionRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}
