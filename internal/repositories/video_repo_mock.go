package repositories

import (
	"sort"
	"sync"

	"vidvault/internal/models"
)

// MockVideoRepository is an in-memory implementation of VideoRepository.
type MockVideoRepository struct {
	videos map[uint]models.Video
	nextID uint
	mu     sync.RWMutex
}

// NewMockVideoRepository creates a new instance of MockVideoRepository.
func NewMockVideoRepository() *MockVideoRepository {
	return &MockVideoRepository{
		videos: make(map[uint]models.Video),
		nextID: 1,
	}
}

// Create adds a new video record, assigning the next surrogate ID.
func (r *MockVideoRepository) Create(video *models.Video) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if video.ID == 0 {
		video.ID = r.nextID
		r.nextID++
	}
	r.videos[video.ID] = *video
	return nil
}

// GetByID returns the video record with the given ID.
func (r *MockVideoRepository) GetByID(id uint) (*models.Video, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	video, ok := r.videos[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &video, nil
}

// ListByUser returns all video records owned by the given user, ordered by ID
// to mirror the insertion order of the GORM implementation.
func (r *MockVideoRepository) ListByUser(userID uint) ([]models.Video, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	videos := make([]models.Video, 0)
	for _, v := range r.videos {
		if v.UserID == userID {
			videos = append(videos, v)
		}
	}
	sort.Slice(videos, func(i, j int) bool { return videos[i].ID < videos[j].ID })
	return videos, nil
}

// Delete removes a video record by its ID.
func (r *MockVideoRepository) Delete(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.videos[id]; !ok {
		return ErrNotFound
	}
	delete(r.videos, id)
	return nil
}
