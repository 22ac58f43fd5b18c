package handlers

import (
	"errors"
	"log"

	"vidvault/internal/flash"
	"vidvault/internal/middleware"
	"vidvault/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for registration, login and logout.
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// RegisterRoutes registers the public routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/", h.HandleHome)
	router.Get("/register", h.HandleRegisterPage)
	router.Post("/register", h.HandleRegister)
	router.Get("/login", h.HandleLoginPage)
	router.Post("/login", h.HandleLogin)
}

// HandleHome renders the public home page.
func (h *AuthHandler) HandleHome(c *fiber.Ctx) error {
	return c.Render("home", fiber.Map{"Flash": flash.Pop(c)})
}

// HandleRegisterPage renders the registration form.
func (h *AuthHandler) HandleRegisterPage(c *fiber.Ctx) error {
	return c.Render("register", fiber.Map{"Flash": flash.Pop(c)})
}

// HandleRegister handles new user registration. Every failure redirects back
// to the registration form with a flash message; success redirects to login.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	input := services.RegisterInput{
		Username:        c.FormValue("username"),
		Email:           c.FormValue("email"),
		Password:        c.FormValue("password"),
		ConfirmPassword: c.FormValue("confirm_password"),
	}

	if _, err := h.authService.Register(input); err != nil {
		var ve *services.ValidationError
		switch {
		case errors.As(err, &ve):
			flash.Set(c, ve.Message)
		case errors.Is(err, services.ErrEmailTaken):
			flash.Set(c, "Email already taken.")
		default:
			log.Printf("Error registering user: %v", err)
			flash.Set(c, "Could not create account. Please try again.")
		}
		return c.Redirect("/register")
	}

	flash.Set(c, "Account created! Please log in.")
	return c.Redirect("/login")
}

// HandleLoginPage renders the login form.
func (h *AuthHandler) HandleLoginPage(c *fiber.Ctx) error {
	return c.Render("login", fiber.Map{"Flash": flash.Pop(c)})
}

// HandleLogin authenticates a user and establishes a session.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	user, err := h.authService.Login(c.FormValue("email"), c.FormValue("password"))
	if err != nil {
		if !errors.Is(err, services.ErrInvalidCredentials) {
			log.Printf("Error during login: %v", err)
		}
		flash.Set(c, "Invalid credentials.")
		return c.Redirect("/login")
	}

	token, err := h.authService.IssueSession(user.ID)
	if err != nil {
		log.Printf("Error issuing session for user %d: %v", user.ID, err)
		flash.Set(c, "Could not log in. Please try again.")
		return c.Redirect("/login")
	}

	middleware.SetSessionCookie(c, token)
	return c.Redirect("/dashboard")
}

// HandleLogout destroys the session and returns to the home page.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	middleware.ClearSessionCookie(c)
	return c.Redirect("/")
}
