package services

import (
	"fmt"
	"log"
	"path"
	"strings"
	"time"

	"github.com/gosimple/slug"

	"petadopt/internal/images"
	"petadopt/internal/models"
	"petadopt/internal/repositories"
	"petadopt/internal/storage"
)

// PhotoManager maintains the ordered, single-primary photo collection of a
// pet. Every file it accepts goes through the image normalizer before it is
// stored; a single undecodable file aborts the whole batch.
type PhotoManager struct {
	petRepo repositories.PetRepository
	store   storage.FileStore
}

// NewPhotoManager creates a new PhotoManager.
func NewPhotoManager(petRepo repositories.PetRepository, store storage.FileStore) *PhotoManager {
	return &PhotoManager{petRepo: petRepo, store: store}
}

// Prepare normalizes and stores files without touching the database, and
// returns photo records ready to be persisted with the pet. The file at
// position 0 is the primary. On any failure every blob written so far is
// removed again.
func (m *PhotoManager) Prepare(pet *models.Pet, files []Upload) ([]models.PetPhoto, error) {
	if len(files) == 0 {
		return nil, nil
	}

	timestamp := time.Now().Unix()
	photos := make([]models.PetPhoto, 0, len(files))
	for i, file := range files {
		normalized, err := images.Normalize(file.Data)
		if err != nil {
			m.Discard(photos)
			return nil, err
		}
		path := petPhotoPath(pet, file, timestamp, i)
		if err := m.store.Save(path, normalized); err != nil {
			m.Discard(photos)
			return nil, err
		}
		photos = append(photos, models.PetPhoto{
			Photo:     path,
			IsPrimary: i == 0,
			Order:     i,
			CreatedAt: time.Now(),
		})
	}
	return photos, nil
}

// Attach adds a new photo sequence to an existing pet: any previously
// existing primary flag is cleared before the new records (first one primary)
// are inserted. Old photos are kept, only their primary designation moves.
func (m *PhotoManager) Attach(pet *models.Pet, files []Upload) ([]models.PetPhoto, error) {
	photos, err := m.Prepare(pet, files)
	if err != nil {
		return nil, err
	}
	if len(photos) == 0 {
		return nil, nil
	}
	if err := m.petRepo.AttachPhotos(pet.ID, photos); err != nil {
		m.Discard(photos)
		return nil, err
	}
	return photos, nil
}

// Discard removes the stored blobs of photos, best effort. Used to clean up
// after a failed save; the database rollback is what guarantees consistency.
func (m *PhotoManager) Discard(photos []models.PetPhoto) {
	for _, p := range photos {
		if err := m.store.Remove(p.Photo); err != nil {
			log.Printf("Failed to remove photo blob %s: %v", p.Photo, err)
		}
	}
}

// petPhotoPath builds the media path for a pet photo from the uploaded file
// name, e.g. pets/dog/front_1700000000_0.jpg. The extension always comes out
// as .jpg because the normalizer re-encodes everything as JPEG.
func petPhotoPath(pet *models.Pet, file Upload, timestamp int64, index int) string {
	petType := pet.PetType
	if petType == "" {
		petType = "unknown"
	}
	ext := path.Ext(file.Name)
	base := slug.Make(strings.TrimSuffix(file.Name, ext))
	if base == "" {
		base = slug.Make(pet.Name)
	}
	if base == "" {
		base = "photo"
	}
	name := images.JPEGName(fmt.Sprintf("%s_%d_%d%s", base, timestamp, index, ext))
	return fmt.Sprintf("pets/%s/%s", petType, name)
}
