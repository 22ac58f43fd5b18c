// Package flash implements one-shot user-facing messages carried across a
// redirect in a cookie. A message set before a redirect is shown on the next
// rendered page and then cleared.
package flash

import (
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
)

const cookieName = "vidvault_flash"

// Set attaches a flash message to the response.
func Set(c *fiber.Ctx, message string) {
	c.Cookie(&fiber.Cookie{
		Name:     cookieName,
		Value:    url.QueryEscape(message),
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// Pop returns the pending flash message, if any, and clears it.
func Pop(c *fiber.Ctx) string {
	raw := c.Cookies(cookieName)
	if raw == "" {
		return ""
	}
	c.Cookie(&fiber.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	message, err := url.QueryUnescape(raw)
	if err != nil {
		return ""
	}
	return message
}
