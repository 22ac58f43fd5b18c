package middleware

import (
	"log"
	"time"

	"vidvault/internal/flash"
	"vidvault/internal/models"
	"vidvault/internal/repositories"
	"vidvault/internal/services"

	"github.com/gofiber/fiber/v2"
)

// SessionCookie is the name of the cookie carrying the signed session token.
const SessionCookie = "vidvault_session"

// SessionRequired is a Fiber middleware guarding authenticated routes. It
// validates the session cookie, re-reads the user from the store on every
// request, and places the user in request-scoped locals. Unauthenticated
// requests are redirected to the login page with a flash message.
func SessionRequired(authService *services.AuthService, userRepo repositories.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(SessionCookie)
		if token == "" {
			flash.Set(c, "Please log in to continue.")
			return c.Redirect("/login")
		}

		userID, err := authService.ValidateSession(token)
		if err != nil {
			log.Printf("Session validation failed: %v", err)
			ClearSessionCookie(c)
			flash.Set(c, "Please log in to continue.")
			return c.Redirect("/login")
		}

		user, err := userRepo.GetByID(userID)
		if err != nil {
			ClearSessionCookie(c)
			flash.Set(c, "Please log in to continue.")
			return c.Redirect("/login")
		}

		c.Locals("user", user)
		return c.Next()
	}
}

// CurrentUser returns the authenticated user placed in locals by
// SessionRequired, or nil on an unguarded route.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals("user").(*models.User)
	return user
}

// SetSessionCookie attaches a session token to the response.
func SetSessionCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(24 * time.Hour),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// ClearSessionCookie destroys the session binding unconditionally.
func ClearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
