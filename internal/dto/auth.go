package dto

import (
	"time"

	"globaltext/internal/models"
)

type RegisterRequest struct {
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=8,max=72"`
	FirstName string  `json:"first_name" validate:"required,max=100"`
	LastName  string  `json:"last_name" validate:"max=100"`
	Country   *string `json:"country,omitempty" validate:"omitempty,max=100"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=40"`
	Role      string  `json:"role" validate:"required,oneof=client translator"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type UpdateProfileRequest struct {
	FirstName string  `json:"first_name" validate:"required,max=100"`
	LastName  string  `json:"last_name" validate:"max=100"`
	Country   *string `json:"country,omitempty" validate:"omitempty,max=100"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=40"`
}

type AuthResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	TokenType    string          `json:"token_type"`
	ExpiresIn    int64           `json:"expires_in"`
	User         ProfileResponse `json:"user"`
}

type ProfileResponse struct {
	ID                   string    `json:"id"`
	Email                string    `json:"email"`
	FirstName            string    `json:"first_name"`
	LastName             string    `json:"last_name"`
	Country              *string   `json:"country,omitempty"`
	Phone                *string   `json:"phone,omitempty"`
	Role                 string    `json:"role"`
	IsApprovedTranslator bool      `json:"is_approved_translator"`
	CreatedAt            time.Time `json:"created_at"`
}

func NewProfileResponse(p *models.Profile) ProfileResponse {
	return ProfileResponse{
		ID:                   p.ID.String(),
		Email:                p.Email,
		FirstName:            p.FirstName,
		LastName:             p.LastName,
		Country:              p.Country,
		Phone:                p.Phone,
		Role:                 string(p.Role),
		IsApprovedTranslator: p.IsApprovedTranslator,
		CreatedAt:            p.CreatedAt,
	}
}

func NewProfileList(list []*models.Profile) []ProfileResponse {
	out := make([]ProfileResponse, 0, len(list))
	for _, p := range list {
		out = append(out, NewProfileResponse(p))
	}
	return out
}

type RouteResponse struct {
	Allow    bool   `json:"allow"`
	Redirect string `json:"redirect,omitempty"`
}
