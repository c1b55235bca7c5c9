package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"strings"
	"time"

	"globaltext/internal/models"
	"globaltext/internal/repository"
	"globaltext/pkg/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FileUpload is a file received from a client request.
type FileUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type ApplicationInput struct {
	FullName          string
	Email             string
	YearsOfExperience int
	Languages         []string
	CVURL             string
	CV                *FileUpload
	PortfolioURL      *string
	LinkedInURL       *string
	CoverLetter       *string
}

// ApplicationService runs the freelancer application flow: candidates apply,
// an admin approves (promoting the profile) or rejects.
type ApplicationService struct {
	applications ApplicationStore
	profiles     ProfileStore
	storage      ObjectStorage
	logger       *zap.Logger
	now          func() time.Time
}

func NewApplicationService(applications ApplicationStore, profiles ProfileStore, storage ObjectStorage, logger *zap.Logger) *ApplicationService {
	return &ApplicationService{
		applications: applications,
		profiles:     profiles,
		storage:      storage,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *ApplicationService) Submit(ctx context.Context, actorID uuid.UUID, in ApplicationInput) (*models.FreelancerApplication, error) {
	p, err := actor(ctx, s.profiles, actorID)
	if err != nil {
		return nil, err
	}
	if p.IsAdmin() || (p.Role == models.RoleTranslator && p.IsApprovedTranslator) {
		return nil, fmt.Errorf("%w: profile is already a translator", ErrConflict)
	}

	in.FullName = strings.TrimSpace(in.FullName)
	if in.FullName == "" {
		return nil, validationf("full name is required")
	}
	if in.Email == "" {
		in.Email = p.Email
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, validationf("invalid email %q", in.Email)
	}
	if in.YearsOfExperience < 0 {
		return nil, validationf("years of experience cannot be negative")
	}
	if len(in.Languages) == 0 {
		return nil, validationf("at least one language is required")
	}
	langs, err := normalizeLanguages(in.Languages)
	if err != nil {
		return nil, err
	}

	if latest, err := s.applications.Latest(ctx, p.ID); err == nil && latest.Status == models.ApplicationPending {
		return nil, fmt.Errorf("%w: an application is already pending", ErrConflict)
	} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fromRepo(err, "application")
	}

	cv := strings.TrimSpace(in.CVURL)
	var uploaded string
	if in.CV != nil && in.CV.Body != nil {
		uploaded = storage.ObjectKey("cv", p.ID, in.CV.FileName)
		if err := s.storage.Upload(ctx, uploaded, in.CV.Body, in.CV.Size, in.CV.ContentType); err != nil {
			return nil, fmt.Errorf("%w: failed to store CV: %v", ErrUpstream, err)
		}
		cv = uploaded
	}
	if cv == "" {
		return nil, validationf("a CV file or link is required")
	}

	a := &models.FreelancerApplication{
		ID:                uuid.New(),
		ApplicantID:       p.ID,
		FullName:          in.FullName,
		Email:             strings.ToLower(in.Email),
		YearsOfExperience: in.YearsOfExperience,
		Languages:         langs,
		CVURL:             cv,
		PortfolioURL:      in.PortfolioURL,
		LinkedInURL:       in.LinkedInURL,
		CoverLetter:       in.CoverLetter,
		Status:            models.ApplicationPending,
		CreatedAt:         s.now(),
	}
	if err := s.applications.Create(ctx, a); err != nil {
		if uploaded != "" {
			_ = s.storage.Delete(ctx, uploaded)
		}
		return nil, fromRepo(err, "application for "+a.Email)
	}

	s.logger.Info("Freelancer application submitted", zap.String("application_id", a.ID.String()), zap.String("applicant_id", p.ID.String()))
	return a, nil
}

// Mine returns the caller's latest application.
func (s *ApplicationService) Mine(ctx context.Context, actorID uuid.UUID) (*models.FreelancerApplication, error) {
	a, err := s.applications.Latest(ctx, actorID)
	if err != nil {
		return nil, fromRepo(err, "application")
	}
	return a, nil
}

func (s *ApplicationService) List(ctx context.Context, actorID uuid.UUID, status *models.ApplicationStatus, limit, offset int) ([]*models.FreelancerApplication, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	list, err := s.applications.List(ctx, status, limit, offset)
	if err != nil {
		return nil, fromRepo(err, "applications")
	}
	return list, nil
}

func (s *ApplicationService) Approve(ctx context.Context, actorID, applicationID uuid.UUID, notes *string) (*models.FreelancerApplication, error) {
	return s.decide(ctx, actorID, applicationID, models.ApplicationApproved, notes)
}

func (s *ApplicationService) Reject(ctx context.Context, actorID, applicationID uuid.UUID, notes *string) (*models.FreelancerApplication, error) {
	return s.decide(ctx, actorID, applicationID, models.ApplicationRejected, notes)
}

func (s *ApplicationService) decide(ctx context.Context, actorID, applicationID uuid.UUID, status models.ApplicationStatus, notes *string) (*models.FreelancerApplication, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	current, err := s.applications.GetByID(ctx, applicationID)
	if err != nil {
		return nil, fromRepo(err, "application")
	}
	if current.Status != models.ApplicationPending {
		return nil, fmt.Errorf("%w: application is %s", ErrStaleState, current.Status)
	}

	now := s.now()
	var n models.Notification
	if status == models.ApplicationApproved {
		n = notification(current.ApplicantID, "Application approved",
			"Welcome aboard! You can now claim translation jobs.", now)
	} else {
		message := "Your translator application was not approved."
		if notes != nil && *notes != "" {
			message += " Notes: " + *notes
		}
		n = notification(current.ApplicantID, "Application reviewed", message, now)
	}

	a, err := s.applications.Decide(ctx, repository.ApplicationDecision{
		ApplicationID: applicationID,
		Status:        status,
		ReviewerID:    actorID,
		Notes:         notes,
		DecidedAt:     now,
		Notification:  &n,
	})
	if err != nil {
		return nil, fromRepo(err, "application "+applicationID.String())
	}

	s.logger.Info("Freelancer application decided",
		zap.String("application_id", applicationID.String()),
		zap.String("status", string(status)),
		zap.String("admin_id", actorID.String()))
	return a, nil
}

func (s *ApplicationService) requireAdmin(ctx context.Context, actorID uuid.UUID) error {
	p, err := actor(ctx, s.profiles, actorID)
	if err != nil {
		return err
	}
	return AccessPolicy{}.Authorize(p, CapabilityAdmin)
}
