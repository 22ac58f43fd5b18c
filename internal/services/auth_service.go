package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"vidvault/internal/models"
	"vidvault/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles business logic for registration, login and sessions.
type AuthService struct {
	userRepo     repositories.UserRepository
	validate     *validator.Validate
	jwtSecret    []byte
	sessionDurat time.Duration // Duration for which a session token is valid
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string) *AuthService {
	return &AuthService{
		userRepo:     userRepo,
		validate:     validator.New(),
		jwtSecret:    []byte(jwtSecret),
		sessionDurat: 24 * time.Hour, // Session valid for 24 hours
	}
}

// RegisterInput is the registration form payload.
type RegisterInput struct {
	Username        string `validate:"required,max=100"`
	Email           string `validate:"required,email,max=100"`
	Password        string `validate:"required,min=8"`
	ConfirmPassword string `validate:"required,eqfield=Password"`
}

// NormalizeEmail returns the canonical form of an email address used for
// storage and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register validates the input, hashes the password, and persists a new user.
// Returns a *ValidationError for bad input and ErrEmailTaken for a duplicate
// email.
func (s *AuthService) Register(input RegisterInput) (*models.User, error) {
	input.Email = NormalizeEmail(input.Email)

	if err := s.validate.Struct(input); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			return nil, &ValidationError{Message: registerMessage(validationErrors[0])}
		}
		return nil, &ValidationError{Message: "Invalid registration input."}
	}

	if _, err := s.userRepo.GetByEmail(input.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing email: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username: input.Username,
		Email:    input.Email,
		Password: string(hashedPassword), // Store the hash, never the plaintext
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	return user, nil
}

// registerMessage maps a field validation failure to the flash message shown
// on the registration page.
func registerMessage(e validator.FieldError) string {
	switch {
	case e.Tag() == "required":
		return "All fields are required."
	case e.Field() == "ConfirmPassword":
		return "Passwords do not match."
	case e.Field() == "Password":
		return "Password must be at least 8 characters long."
	case e.Field() == "Email":
		return "Invalid email address."
	}
	return "Invalid registration input."
}

// Login authenticates a user by email and password and returns the matching
// user. Both an unknown email and a bad password yield ErrInvalidCredentials.
func (s *AuthService) Login(email, password string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(NormalizeEmail(email))
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !CheckPassword(password, user.Password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// CheckPassword reports whether plaintext matches the stored bcrypt hash.
func CheckPassword(plaintext, storedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(plaintext)) == nil
}

// IssueSession signs a session token bound to the given user ID. The token is
// set as an HttpOnly cookie by the handler.
func (s *AuthService) IssueSession(userID uint) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(s.sessionDurat).Unix(),
		"iat":     time.Now().Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return tokenString, nil
}

// ValidateSession parses and verifies a session token and returns the user ID
// it is bound to.
func (s *AuthService) ValidateSession(tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return 0, fmt.Errorf("invalid session token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, errors.New("invalid session token")
	}

	// JSON numbers decode as float64
	id, ok := claims["user_id"].(float64)
	if !ok || id <= 0 {
		return 0, errors.New("session token has no user binding")
	}
	return uint(id), nil
}
