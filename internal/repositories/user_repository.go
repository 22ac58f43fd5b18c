package repositories

import (
	"errors"

	"vidvault/internal/models"
)

// ErrNotFound is returned by all repositories when a record does not exist.
var ErrNotFound = errors.New("record not found")

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(user *models.User) error
	GetByEmail(email string) (*models.User, error)
	GetByID(id uint) (*models.User, error)
}
