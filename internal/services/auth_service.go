package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/taskey/taskey-api/internal/constants"
	"github.com/taskey/taskey-api/internal/models"
	"github.com/taskey/taskey-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUsernameRequired     = errors.New("username is required")
	ErrUsernameTaken        = errors.New("username already exists")
	ErrInvalidCredentials   = errors.New("invalid username or password")
	ErrPasswordTooShort     = errors.New("password too short")
	ErrUserNotFound         = errors.New("user not found")
	ErrFailedToHashPassword = errors.New("failed to hash password")
	ErrFailedToCreateUser   = errors.New("failed to create user")
	ErrFailedToCreateProf   = errors.New("failed to create customer profile")
)

// AuthService handles authentication related business logic.
type AuthService struct {
	userRepo     repository.UserRepository
	customerRepo repository.CustomerRepository
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, customerRepo repository.CustomerRepository) *AuthService {
	return &AuthService{
		userRepo:     userRepo,
		customerRepo: customerRepo,
	}
}

// SignupInput represents the required information to create a new user.
type SignupInput struct {
	Username string
	Password string
	FullName string
	Phone    string
	Email    string
}

// Signup creates a new user along with their customer profile. Every account
// starts as a customer and can onboard as a helper later.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	if _, err := s.userRepo.FindByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	fullName := strings.TrimSpace(input.FullName)
	phone := strings.TrimSpace(input.Phone)
	user := &models.User{
		Username:     username,
		PasswordHash: string(hashedPassword),
		FullName:     fullName,
		Phone:        phone,
	}
	profile := &models.CustomerProfile{
		FullName: fullName,
		Phone:    phone,
		Email:    strings.TrimSpace(input.Email),
	}

	if err := s.userRepo.CreateWithCustomerProfile(ctx, user, profile); err != nil {
		switch {
		case errors.Is(err, repository.ErrCreateUser):
			return nil, ErrFailedToCreateUser
		case errors.Is(err, repository.ErrCreateCustomerProfile):
			return nil, ErrFailedToCreateProf
		default:
			return nil, fmt.Errorf("failed to complete signup: %w", err)
		}
	}

	return user, nil
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Username string
	Password string
}

// Login verifies credentials and returns the authenticated user.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*models.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, strings.TrimSpace(input.Username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// GetCustomerProfile retrieves the customer profile of a user.
func (s *AuthService) GetCustomerProfile(ctx context.Context, userID uint64) (*models.CustomerProfile, error) {
	profile, err := s.customerRepo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find customer profile: %w", err)
	}
	return profile, nil
}
