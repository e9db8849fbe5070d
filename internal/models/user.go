package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role identifies the capability set a user acts with.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleShelter Role = "shelter"
	RoleClient  Role = "client"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	return r == RoleAdmin || r == RoleShelter || r == RoleClient
}

// User represents an account in the system. Role decides what the user may
// do; a user with role "shelter" owns exactly one Shelter record.
type User struct {
	ID         string   `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Username   string   `json:"username" gorm:"uniqueIndex;type:varchar(150)" validate:"required,min=3,max=30"`
	Email      string   `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Password   string   `json:"-" gorm:"type:varchar(255)" validate:"required,min=8"`
	Role       Role     `json:"role" gorm:"type:varchar(10);default:client"`
	Phone      string   `json:"phone,omitempty" gorm:"type:varchar(20)"`
	Shelter    *Shelter `json:"shelter,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	gorm.Model `json:"-"`
}

// BeforeCreate assigns a UUID when the caller did not provide one.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}
