package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"petadopt/internal/apperr"
)

// Pet types and age units accepted on intake.
const (
	PetTypeDog = "dog"
	PetTypeCat = "cat"

	AgeUnitMonths = "months"
	AgeUnitYears  = "years"
)

// Pet is an animal listed for adoption. A pet belongs to exactly one of a
// client user (Owner) or a Shelter, never both and never neither.
type Pet struct {
	ID          string     `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name        string     `json:"name" gorm:"type:varchar(120)" validate:"required,max=120"`
	PetType     string     `json:"pet_type" gorm:"type:varchar(10)" validate:"required,oneof=dog cat"`
	Breed       string     `json:"breed" gorm:"type:varchar(120)" validate:"omitempty,max=120"`
	Age         *int       `json:"age,omitempty" validate:"omitempty,gte=0"`
	AgeUnit     string     `json:"age_unit" gorm:"type:varchar(10);default:years" validate:"omitempty,oneof=months years"`
	Size        string     `json:"size" gorm:"type:varchar(50)" validate:"omitempty,max=50"`
	Description string     `json:"description"`
	Status      string     `json:"status" gorm:"type:varchar(20);default:available"`
	ShelterID   *string    `json:"shelter_id,omitempty" gorm:"type:varchar(36)"`
	Shelter     *Shelter   `json:"shelter,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	OwnerID     *string    `json:"owner_id,omitempty" gorm:"type:varchar(36)"`
	Owner       *User      `json:"owner,omitempty" gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE"`
	Photo       string     `json:"photo,omitempty"` // legacy single-photo path, superseded by Photos
	Photos      []PetPhoto `json:"photos" gorm:"constraint:OnDelete:CASCADE"`
	gorm.Model  `json:"-"`
}

// ValidateOwnership enforces the owner-xor-shelter invariant.
func (p *Pet) ValidateOwnership() error {
	hasOwner := p.OwnerID != nil && *p.OwnerID != ""
	hasShelter := p.ShelterID != nil && *p.ShelterID != ""
	if hasOwner && hasShelter {
		return apperr.Validation("a pet cannot have both an owner and a shelter")
	}
	if !hasOwner && !hasShelter {
		return apperr.Validation("a pet must have either an owner (client) or a shelter")
	}
	return nil
}

func (p *Pet) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// BeforeSave re-checks the ownership invariant so no code path can persist a
// pet that violates it.
func (p *Pet) BeforeSave(tx *gorm.DB) error {
	return p.ValidateOwnership()
}

// PrimaryPhotoPath resolves the pet's display photo: the first photo in
// display order if any exist, else the legacy single-photo field, else empty.
func (p *Pet) PrimaryPhotoPath() string {
	if len(p.Photos) > 0 {
		photos := make([]PetPhoto, len(p.Photos))
		copy(photos, p.Photos)
		SortPhotos(photos)
		return photos[0].Photo
	}
	return p.Photo
}

// PetPhoto is one entry in a pet's ordered photo collection. At most one
// photo per pet carries IsPrimary.
type PetPhoto struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	PetID     string    `json:"pet_id" gorm:"index;type:varchar(36)"`
	Photo     string    `json:"photo"` // relative media path, always .jpg
	IsPrimary bool      `json:"is_primary"`
	Order     int       `json:"order" gorm:"column:display_order"`
	CreatedAt time.Time `json:"created_at"`
}

func (p *PetPhoto) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// SortPhotos orders photos for display: primary first, then Order ascending,
// then creation time as a stable tie-break.
func SortPhotos(photos []PetPhoto) {
	sort.SliceStable(photos, func(i, j int) bool {
		if photos[i].IsPrimary != photos[j].IsPrimary {
			return photos[i].IsPrimary
		}
		if photos[i].Order != photos[j].Order {
			return photos[i].Order < photos[j].Order
		}
		return photos[i].CreatedAt.Before(photos[j].CreatedAt)
	})
}
