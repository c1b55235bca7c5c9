package dto

import (
	"time"

	"globaltext/internal/models"
)

// CreateApplicationRequest is sent as multipart form; cv is an optional file
// part, otherwise cv_url must be set. languages is comma separated.
type CreateApplicationRequest struct {
	FullName          string `form:"full_name" validate:"required,max=200"`
	Email             string `form:"email" validate:"omitempty,email"`
	YearsOfExperience int    `form:"years_of_experience" validate:"gte=0,lte=80"`
	Languages         string `form:"languages" validate:"required"`
	CVURL             string `form:"cv_url" validate:"omitempty,url"`
	PortfolioURL      string `form:"portfolio_url" validate:"omitempty,url"`
	LinkedInURL       string `form:"linkedin_url" validate:"omitempty,url"`
	CoverLetter       string `form:"cover_letter" validate:"max=10000"`
}

type ApplicationResponse struct {
	ID                string     `json:"id"`
	ApplicantID       string     `json:"applicant_id"`
	FullName          string     `json:"full_name"`
	Email             string     `json:"email"`
	YearsOfExperience int        `json:"years_of_experience"`
	Languages         []string   `json:"languages"`
	CVURL             string     `json:"cv_url"`
	PortfolioURL      *string    `json:"portfolio_url,omitempty"`
	LinkedInURL       *string    `json:"linkedin_url,omitempty"`
	CoverLetter       *string    `json:"cover_letter,omitempty"`
	Status            string     `json:"status"`
	ReviewedBy        *string    `json:"reviewed_by,omitempty"`
	ReviewedAt        *time.Time `json:"reviewed_at,omitempty"`
	ReviewNotes       *string    `json:"review_notes,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

func NewApplicationResponse(a *models.FreelancerApplication) ApplicationResponse {
	resp := ApplicationResponse{
		ID:                a.ID.String(),
		ApplicantID:       a.ApplicantID.String(),
		FullName:          a.FullName,
		Email:             a.Email,
		YearsOfExperience: a.YearsOfExperience,
		Languages:         a.Languages,
		CVURL:             a.CVURL,
		PortfolioURL:      a.PortfolioURL,
		LinkedInURL:       a.LinkedInURL,
		CoverLetter:       a.CoverLetter,
		Status:            string(a.Status),
		ReviewedAt:        a.ReviewedAt,
		ReviewNotes:       a.ReviewNotes,
		CreatedAt:         a.CreatedAt,
	}
	if a.ReviewedBy != nil {
		id := a.ReviewedBy.String()
		resp.ReviewedBy = &id
	}
	return resp
}

func NewApplicationList(list []*models.FreelancerApplication) []ApplicationResponse {
	out := make([]ApplicationResponse, 0, len(list))
	for _, a := range list {
		out = append(out, NewApplicationResponse(a))
	}
	return out
}
