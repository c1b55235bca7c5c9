package models

import (
	"time"

	"github.com/google/uuid"
)

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
)

type FreelancerApplication struct {
	ID                uuid.UUID         `db:"id"`
	ApplicantID       uuid.UUID         `db:"applicant_id"`
	FullName          string            `db:"full_name"`
	Email             string            `db:"email"`
	YearsOfExperience int               `db:"years_of_experience"`
	Languages         []string          `db:"languages"`
	CVURL             string            `db:"cv_url"`
	PortfolioURL      *string           `db:"portfolio_url"`
	LinkedInURL       *string           `db:"linkedin_url"`
	CoverLetter       *string           `db:"cover_letter"`
	Status            ApplicationStatus `db:"status"`
	ReviewedBy        *uuid.UUID        `db:"reviewed_by"`
	ReviewedAt        *time.Time        `db:"reviewed_at"`
	ReviewNotes       *string           `db:"review_notes"`
	CreatedAt         time.Time         `db:"created_at"`
}
