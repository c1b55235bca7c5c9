package service

import (
	"context"
	"io"

	"globaltext/internal/models"
	"globaltext/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ProfileStore interface {
	Create(ctx context.Context, p *models.Profile) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	GetByEmail(ctx context.Context, email string) (*models.Profile, error)
	List(ctx context.Context, role *models.Role, limit, offset int) ([]*models.Profile, error)
	CountByRole(ctx context.Context) (map[models.Role]int, error)
	UpsertAdmin(ctx context.Context, p *models.Profile) (uuid.UUID, error)
	UpdateDetails(ctx context.Context, id uuid.UUID, firstName, lastName string, country, phone *string) (*models.Profile, error)
}

type TranslationStore interface {
	Create(ctx context.Context, t *models.Translation) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Translation, error)
	List(ctx context.Context, f repository.TranslationFilter) ([]*models.Translation, error)
	ListAvailable(ctx context.Context, limit, offset int) ([]*models.AvailableTranslation, error)
	ApplyTransition(ctx context.Context, id uuid.UUID, guard models.TransitionGuard, patch models.TranslationPatch, notifications []models.Notification) (*models.Translation, error)
	CountByStatus(ctx context.Context) (map[models.TranslationStatus]int, error)
	TotalPaid(ctx context.Context) (decimal.Decimal, error)
}

type ApplicationStore interface {
	Create(ctx context.Context, a *models.FreelancerApplication) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.FreelancerApplication, error)
	Latest(ctx context.Context, applicantID uuid.UUID) (*models.FreelancerApplication, error)
	List(ctx context.Context, status *models.ApplicationStatus, limit, offset int) ([]*models.FreelancerApplication, error)
	Decide(ctx context.Context, d repository.ApplicationDecision) (*models.FreelancerApplication, error)
	CountPending(ctx context.Context) (int, error)
}

type SubscriptionStore interface {
	Current(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
	Upsert(ctx context.Context, s *models.Subscription) (*models.Subscription, error)
	GetByExternalID(ctx context.Context, externalID string) (*models.Subscription, error)
	CountActive(ctx context.Context) (int, error)
}

type WithdrawalStore interface {
	Balance(ctx context.Context, translatorID uuid.UUID) (models.Balance, error)
	CreateChecked(ctx context.Context, w *models.WithdrawalRequest) (models.Balance, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error)
	List(ctx context.Context, translatorID *uuid.UUID, status *models.WithdrawalStatus, limit, offset int) ([]*models.WithdrawalRequest, error)
	Transition(ctx context.Context, id uuid.UUID, from, to models.WithdrawalStatus, adminID uuid.UUID, notification func(*models.WithdrawalRequest) models.Notification) (*models.WithdrawalRequest, error)
	CountPending(ctx context.Context) (int, error)
}

type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]*models.Notification, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

// ObjectStorage is the blob store for originals, translated files and CVs.
type ObjectStorage interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	PresignedURL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}
