package repositories

import "vidvault/internal/models"

// VideoRepository defines the interface for video record data access.
type VideoRepository interface {
	Create(video *models.Video) error
	GetByID(id uint) (*models.Video, error)
	ListByUser(userID uint) ([]models.Video, error)
	Delete(id uint) error
}
