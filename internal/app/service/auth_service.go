package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"deeds_api/internal/common"
	"deeds_api/internal/common/security"
	"deeds_api/internal/domain/model"
	"deeds_api/internal/domain/repository"
)

type AuthService struct {
	userRepo repository.UserRepository
}

func NewAuthService(userRepo repository.UserRepository) *AuthService {
	return &AuthService{userRepo: userRepo}
}

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Region   string `json:"region"`
	Sector   string `json:"sector"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Message string         `json:"message"`
	Profile *model.Profile `json:"profile"`
}

const minPasswordLength = 8

func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	name := common.SanitizeText(req.Name)
	email := common.NormalizeEmail(req.Email)
	if name == "" || email == "" || req.Password == "" {
		return nil, fmt.Errorf("name, email, and password are required: %w", common.ErrValidation)
	}
	if len(req.Password) < minPasswordLength {
		return nil, fmt.Errorf("passwords must be at least 8 characters long: %w", common.ErrValidation)
	}

	// Pre-check for a friendlier message; the unique constraint on
	// email closes the remaining race in Create.
	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("an account with this email already exists, please log in: %w", common.ErrConflict)
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Name:               name,
		Email:              email,
		HashedPassword:     hashedPassword,
		Role:               model.RoleUser, // Default role
		Region:             optionalText(req.Region),
		Sector:             optionalText(req.Sector),
		VerificationStatus: "pending",
		CreatedAt:          time.Now().UTC(),
	}

	id, err := s.userRepo.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := security.GenerateToken(id, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &AuthResponse{
		Message: fmt.Sprintf("Welcome to Deeds, %s!", firstName(name)),
		Profile: &model.Profile{
			ID:                 id,
			Name:               name,
			Email:              email,
			Role:               user.Role,
			Region:             user.Region,
			Sector:             user.Sector,
			VerificationStatus: user.VerificationStatus,
			CreatedAt:          user.CreatedAt.Format(time.RFC3339),
			SessionToken:       token,
		},
	}, nil
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	email := common.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, fmt.Errorf("email and password are required: %w", common.ErrValidation)
	}

	user, completed, err := s.userRepo.FindByEmailWithCompleted(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("we could not find that account, please sign up first: %w", common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !security.CheckPasswordHash(req.Password, user.HashedPassword) {
		return nil, fmt.Errorf("invalid email or password: %w", common.ErrUnauthorized)
	}

	token, err := security.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &AuthResponse{
		Message: fmt.Sprintf("Welcome back, %s!", firstName(user.Name)),
		Profile: &model.Profile{
			ID:                 user.ID,
			Name:               user.Name,
			Email:              user.Email,
			Role:               user.Role,
			Credits:            user.Credits,
			Completed:          completed,
			Region:             user.Region,
			Sector:             user.Sector,
			VerificationStatus: user.VerificationStatus,
			CreatedAt:          user.CreatedAt.Format(time.RFC3339),
			SessionToken:       token,
		},
	}, nil
}

func firstName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return name
	}
	return fields[0]
}

func optionalText(value string) *string {
	sanitized := common.SanitizeText(value)
	if sanitized == "" {
		return nil
	}
	return &sanitized
}
