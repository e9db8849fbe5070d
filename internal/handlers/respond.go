package handlers

import (
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"petadopt/internal/apperr"
	"petadopt/internal/models"
	"petadopt/internal/services"
	"petadopt/internal/storage"
)

// statusFor maps the service error taxonomy to HTTP status codes.
func statusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation, apperr.KindConfiguration, apperr.KindDecode:
		return fiber.StatusBadRequest
	case apperr.KindAuthentication:
		return fiber.StatusUnauthorized
	case apperr.KindPermission:
		return fiber.StatusForbidden
	case apperr.KindNotFound:
		return fiber.StatusNotFound
	case apperr.KindConflict:
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

// fail writes a structured rejection with a human-readable message.
func fail(c *fiber.Ctx, message string, err error) error {
	return c.Status(statusFor(err)).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}

// readUploads extracts the named multipart files in submission order.
func readUploads(files []*multipart.FileHeader) ([]services.Upload, error) {
	uploads := make([]services.Upload, 0, len(files))
	for _, header := range files {
		f, err := header.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, services.Upload{Name: header.Filename, Data: data})
	}
	return uploads, nil
}

// photoResponse serializes one pet photo with its resolved URL.
func photoResponse(photo models.PetPhoto, store storage.FileStore) fiber.Map {
	return fiber.Map{
		"id":         photo.ID,
		"photo_url":  store.URL(photo.Photo),
		"is_primary": photo.IsPrimary,
		"order":      photo.Order,
		"created_at": photo.CreatedAt,
	}
}

// petResponse serializes a pet with photo URLs in display order.
func petResponse(pet *models.Pet, store storage.FileStore) fiber.Map {
	photos := make([]models.PetPhoto, len(pet.Photos))
	copy(photos, pet.Photos)
	models.SortPhotos(photos)

	photoList := make([]fiber.Map, 0, len(photos))
	for _, p := range photos {
		photoList = append(photoList, photoResponse(p, store))
	}

	var primaryURL interface{}
	if path := pet.PrimaryPhotoPath(); path != "" {
		primaryURL = store.URL(path)
	}

	resp := fiber.Map{
		"id":                pet.ID,
		"name":              pet.Name,
		"pet_type":          pet.PetType,
		"breed":             pet.Breed,
		"age":               pet.Age,
		"age_unit":          pet.AgeUnit,
		"size":              pet.Size,
		"description":       pet.Description,
		"status":            pet.Status,
		"owner_id":          pet.OwnerID,
		"shelter_id":        pet.ShelterID,
		"photos":            photoList,
		"primary_photo_url": primaryURL,
	}
	return resp
}

// shelterResponse serializes a shelter with its photo URL.
func shelterResponse(shelter *models.Shelter, store storage.FileStore) fiber.Map {
	var photoURL interface{}
	if shelter.Photo != "" {
		photoURL = store.URL(shelter.Photo)
	}
	return fiber.Map{
		"id":        shelter.ID,
		"user_id":   shelter.UserID,
		"name":      shelter.Name,
		"address":   shelter.Address,
		"verified":  shelter.Verified,
		"photo_url": photoURL,
	}
}

// adoptionResponse serializes an adoption request.
func adoptionResponse(request *models.AdoptionRequest) fiber.Map {
	return fiber.Map{
		"id":         request.ID,
		"pet_id":     request.PetID,
		"user_id":    request.UserID,
		"message":    request.Message,
		"status":     request.Status,
		"created_at": request.CreatedAt,
	}
}
