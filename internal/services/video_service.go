package services

import (
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"time"

	"vidvault/internal/models"
	"vidvault/internal/repositories"
	"vidvault/internal/storage"

	"github.com/google/uuid"
)

// EventPublisher publishes video lifecycle events to a message broker.
type EventPublisher interface {
	PublishVideoEvent(event map[string]interface{}) error
}

// VideoService handles business logic for the videos a user owns.
type VideoService struct {
	videoRepo repositories.VideoRepository
	store     storage.Store
	events    EventPublisher // nil when no broker is configured
}

// NewVideoService creates a new VideoService.
func NewVideoService(videoRepo repositories.VideoRepository, store storage.Store, events EventPublisher) *VideoService {
	return &VideoService{
		videoRepo: videoRepo,
		store:     store,
		events:    events,
	}
}

// ListOwned returns all videos owned by the given user in store order.
func (s *VideoService) ListOwned(userID uint) ([]models.Video, error) {
	return s.videoRepo.ListByUser(userID)
}

// Upload stores the file content under the client-supplied filename and
// creates a video record pointing at it. An upload with a filename already on
// disk overwrites that file; the records stay independent.
func (s *VideoService) Upload(userID uint, filename, title string, data io.Reader) (*models.Video, error) {
	if _, err := s.store.Save(filename, data); err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	video := &models.Video{
		Filename:   filepath.Base(filename),
		Title:      title,
		UserID:     userID,
		UploadDate: time.Now(),
	}
	if err := s.videoRepo.Create(video); err != nil {
		// Remove the just-written file so the failed insert leaves no orphan.
		if rmErr := s.store.Remove(video.Filename); rmErr != nil {
			log.Printf("Warning: failed to remove file after insert failure: %v", rmErr)
		}
		return nil, fmt.Errorf("failed to create video record: %w", err)
	}

	s.publish("video.uploaded", video)
	return video, nil
}

// Delete removes the file and then the record for a video the caller owns.
// A record whose file is already gone still deletes cleanly.
func (s *VideoService) Delete(userID, videoID uint) error {
	video, err := s.lookupOwned(userID, videoID)
	if err != nil {
		return err
	}

	// File first, then record. Remove tolerates a missing file.
	if err := s.store.Remove(video.Filename); err != nil {
		return err
	}
	if err := s.videoRepo.Delete(video.ID); err != nil {
		return fmt.Errorf("failed to delete video record: %w", err)
	}

	s.publish("video.deleted", video)
	return nil
}

// Download returns the disk path and filename for a video the caller owns.
// The path is not stat'ed here: serving a record whose file has gone missing
// fails at send time as a server fault.
func (s *VideoService) Download(userID, videoID uint) (path, filename string, err error) {
	video, err := s.lookupOwned(userID, videoID)
	if err != nil {
		return "", "", err
	}
	return s.store.Path(video.Filename), video.Filename, nil
}

// lookupOwned fetches a video and enforces the single-owner check.
func (s *VideoService) lookupOwned(userID, videoID uint) (*models.Video, error) {
	video, err := s.videoRepo.GetByID(videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if video.UserID != userID {
		return nil, ErrForbidden
	}
	return video, nil
}

// publish sends a lifecycle event when a broker is configured. Publish
// failures are logged, never surfaced to the user.
func (s *VideoService) publish(action string, video *models.Video) {
	if s.events == nil {
		return
	}
	event := map[string]interface{}{
		"event_id": uuid.New().String(),
		"action":   action,
		"video_id": video.ID,
		"user_id":  video.UserID,
		"filename": video.Filename,
		"title":    video.Title,
	}
	if err := s.events.PublishVideoEvent(event); err != nil {
		log.Printf("Warning: failed to publish %s event for video %d: %v", action, video.ID, err)
	}
}
