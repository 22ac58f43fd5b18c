package handlers

import (
	"errors"
	"log"

	"vidvault/internal/flash"
	"vidvault/internal/middleware"
	"vidvault/internal/services"

	"github.com/gofiber/fiber/v2"
)

// VideoHandler handles HTTP requests for the videos a user owns. All routes
// here sit behind the session middleware.
type VideoHandler struct {
	service *services.VideoService
}

// NewVideoHandler creates a new VideoHandler.
func NewVideoHandler(service *services.VideoService) *VideoHandler {
	return &VideoHandler{
		service: service,
	}
}

// RegisterRoutes registers the video routes with the protected router group.
func (h *VideoHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/dashboard", h.HandleDashboard)
	router.Post("/upload", h.HandleUpload)
	router.Post("/delete/:id", h.HandleDelete)
	router.Get("/download/:id", h.HandleDownload)
}

// HandleDashboard lists the caller's videos.
func (h *VideoHandler) HandleDashboard(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	videos, err := h.service.ListOwned(user.ID)
	if err != nil {
		log.Printf("Error listing videos for user %d: %v", user.ID, err)
		return fiber.ErrInternalServerError
	}

	return c.Render("dashboard", fiber.Map{
		"Flash":    flash.Pop(c),
		"Username": user.Username,
		"Videos":   videos,
	})
}

// HandleUpload stores a multipart upload. A request with no file attached is
// silently redirected back to the dashboard.
func (h *VideoHandler) HandleUpload(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	fileHeader, err := c.FormFile("video")
	if err != nil {
		// No file in the form: no-op, still redirects
		return c.Redirect("/dashboard")
	}

	src, err := fileHeader.Open()
	if err != nil {
		log.Printf("Error opening uploaded file: %v", err)
		flash.Set(c, "Could not read the uploaded file.")
		return c.Redirect("/dashboard")
	}
	defer src.Close()

	if _, err := h.service.Upload(user.ID, fileHeader.Filename, c.FormValue("title"), src); err != nil {
		log.Printf("Error uploading video for user %d: %v", user.ID, err)
		flash.Set(c, "Could not upload the video. Please try again.")
	}
	return c.Redirect("/dashboard")
}

// HandleDelete removes a video the caller owns.
func (h *VideoHandler) HandleDelete(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return h.flashError(c, services.ErrNotFound, "delete")
	}

	if err := h.service.Delete(user.ID, uint(id)); err != nil {
		return h.flashError(c, err, "delete")
	}
	return c.Redirect("/dashboard")
}

// HandleDownload streams a video the caller owns as an attachment. A record
// whose file is missing from disk fails the send as a server fault.
func (h *VideoHandler) HandleDownload(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return h.flashError(c, services.ErrNotFound, "download")
	}

	path, filename, err := h.service.Download(user.ID, uint(id))
	if err != nil {
		return h.flashError(c, err, "download")
	}
	return c.Download(path, filename)
}

// flashError translates a video service error into a flash message and a
// redirect back to the dashboard.
func (h *VideoHandler) flashError(c *fiber.Ctx, err error, action string) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		flash.Set(c, "Video not found.")
	case errors.Is(err, services.ErrForbidden):
		flash.Set(c, "You cannot "+action+" this video!")
	default:
		log.Printf("Error handling video %s: %v", action, err)
		flash.Set(c, "Something went wrong. Please try again.")
	}
	return c.Redirect("/dashboard")
}
