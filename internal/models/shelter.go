package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Shelter is the organization record behind a user with role "shelter".
// It is created together with the user at registration and is deleted with it.
type Shelter struct {
	ID         string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID     string `json:"user_id" gorm:"uniqueIndex;type:varchar(36)"`
	Name       string `json:"name" gorm:"type:varchar(200)" validate:"required,max=200"`
	Address    string `json:"address"`
	Verified   bool   `json:"verified"`
	Photo      string `json:"photo,omitempty"` // relative media path, always .jpg once normalized
	gorm.Model `json:"-"`
}

func (s *Shelter) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}
