package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"globaltext/internal/dto"
	"globaltext/internal/models"
	"globaltext/internal/repository"
	"globaltext/pkg/auth"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrAuthentication)

type AuthService struct {
	profiles   ProfileStore
	jwtManager *auth.JWTManager
	logger     *zap.Logger
}

func NewAuthService(profiles ProfileStore, jwtManager *auth.JWTManager, logger *zap.Logger) *AuthService {
	return &AuthService{
		profiles:   profiles,
		jwtManager: jwtManager,
		logger:     logger,
	}
}

// Register creates a client or translator profile. Translators start
// unapproved; admin is never self-selectable.
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	role := models.Role(req.Role)
	if role != models.RoleClient && role != models.RoleTranslator {
		return nil, validationf("role must be client or translator")
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if existing, err := s.profiles.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: email already registered", ErrConflict)
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p := &models.Profile{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hashedPassword,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Country:      req.Country,
		Phone:        req.Phone,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.profiles.Create(ctx, p); err != nil {
		return nil, fromRepo(err, "profile "+email)
	}

	s.logger.Info("Profile registered", zap.String("profile_id", p.ID.String()), zap.String("role", string(role)))
	return s.issue(p)
}

func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	p, err := s.profiles.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPasswordHash(req.Password, p.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return s.issue(p)
}

func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*dto.AuthResponse, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthentication, err)
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed subject", ErrAuthentication)
	}
	p, err := actor(ctx, s.profiles, userID)
	if err != nil {
		return nil, err
	}
	return s.issue(p)
}

func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	return actor(ctx, s.profiles, userID)
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *dto.UpdateProfileRequest) (*models.Profile, error) {
	p, err := s.profiles.UpdateDetails(ctx, userID,
		strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName), req.Country, req.Phone)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: profile no longer exists", ErrAuthentication)
	}
	if err != nil {
		return nil, fromRepo(err, "profile")
	}
	return p, nil
}

// EnsureAdmin creates the admin account or promotes the profile with that email.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) (uuid.UUID, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || len(password) < 8 {
		return uuid.Nil, validationf("admin email and a password of at least 8 characters are required")
	}
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return uuid.Nil, err
	}
	now := time.Now().UTC()
	return s.profiles.UpsertAdmin(ctx, &models.Profile{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hashedPassword,
		FirstName:    "Admin",
		Role:         models.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func (s *AuthService) issue(p *models.Profile) (*dto.AuthResponse, error) {
	accessToken, err := s.jwtManager.GenerateToken(p.ID.String(), p.Email, string(p.Role))
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.jwtManager.GenerateRefreshToken(p.ID.String())
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.jwtManager.GetTokenDuration().Seconds()),
		User:         dto.NewProfileResponse(p),
	}, nil
}
