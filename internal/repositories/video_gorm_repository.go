package repositories

import (
	"errors"
	"fmt"

	"vidvault/internal/models"

	"gorm.io/gorm"
)

// GORMVideoRepository is a GORM implementation of VideoRepository.
type GORMVideoRepository struct {
	db *gorm.DB
}

// NewGORMVideoRepository creates a new instance of GORMVideoRepository.
func NewGORMVideoRepository(db *gorm.DB) *GORMVideoRepository {
	return &GORMVideoRepository{
		db: db,
	}
}

// Create creates a new video record in the database.
func (r *GORMVideoRepository) Create(video *models.Video) error {
	if err := r.db.Create(video).Error; err != nil {
		return fmt.Errorf("failed to create video: %w", err)
	}
	return nil
}

// GetByID retrieves a single video record by its ID.
func (r *GORMVideoRepository) GetByID(id uint) (*models.Video, error) {
	var video models.Video
	if err := r.db.First(&video, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get video by ID %d: %w", id, err)
	}
	return &video, nil
}

// ListByUser retrieves all video records owned by the given user, in
// insertion order.
func (r *GORMVideoRepository) ListByUser(userID uint) ([]models.Video, error) {
	var videos []models.Video
	if err := r.db.Find(&videos, "user_id = ?", userID).Error; err != nil {
		return nil, fmt.Errorf("failed to list videos for user %d: %w", userID, err)
	}
	return videos, nil
}

// Delete deletes a video record by its ID.
func (r *GORMVideoRepository) Delete(id uint) error {
	res := r.db.Delete(&models.Video{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete video: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
