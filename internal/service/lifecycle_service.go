package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"globaltext/internal/models"
	"globaltext/internal/repository"
	"globaltext/pkg/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// FileKind selects which artifact of a translation a download link points at.
type FileKind string

const (
	FileOriginal   FileKind = "original"
	FileTranslated FileKind = "translated"
)

// LifecycleService executes translation transitions against the store. Every
// transition is one conditional write; the rules live in lifecycle.go.
type LifecycleService struct {
	translations TranslationStore
	profiles     ProfileStore
	storage      ObjectStorage
	logger       *zap.Logger
	now          func() time.Time
}

func NewLifecycleService(
	translations TranslationStore,
	profiles ProfileStore,
	storage ObjectStorage,
	logger *zap.Logger,
) *LifecycleService {
	return &LifecycleService{
		translations: translations,
		profiles:     profiles,
		storage:      storage,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// actor loads the caller's profile. A token for a deleted profile is treated
// as an invalid session.
func actor(ctx context.Context, profiles ProfileStore, id uuid.UUID) (*models.Profile, error) {
	p, err := profiles.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: profile no longer exists", ErrAuthentication)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return p, nil
}

func (s *LifecycleService) load(ctx context.Context, actorID, id uuid.UUID) (*models.Profile, *models.Translation, error) {
	p, err := actor(ctx, s.profiles, actorID)
	if err != nil {
		return nil, nil, err
	}
	t, err := s.translations.GetByID(ctx, id)
	if err != nil {
		return nil, nil, fromRepo(err, "translation")
	}
	return p, t, nil
}

func (s *LifecycleService) apply(ctx context.Context, id uuid.UUID, plan Plan) (*models.Translation, error) {
	t, err := s.translations.ApplyTransition(ctx, id, plan.Guard, plan.Patch, plan.Notifications)
	if err != nil {
		return nil, fromRepo(err, "translation "+id.String())
	}
	return t, nil
}

func (s *LifecycleService) Claim(ctx context.Context, actorID, id uuid.UUID) (*models.Translation, error) {
	p, t, err := s.load(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	plan, err := PlanClaim(p, t)
	if err != nil {
		return nil, err
	}
	out, err := s.apply(ctx, id, plan)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Translation claimed", zap.String("translation_id", id.String()), zap.String("translator_id", actorID.String()))
	return out, nil
}

func (s *LifecycleService) Decline(ctx context.Context, actorID, id uuid.UUID) (*models.Translation, error) {
	p, t, err := s.load(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	plan, err := PlanDecline(p, t)
	if err != nil {
		return nil, err
	}
	out, err := s.apply(ctx, id, plan)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Translation declined", zap.String("translation_id", id.String()), zap.String("translator_id", actorID.String()))
	return out, nil
}

// Submit sends the work to admin review. A file is uploaded first and the status
// flip is the commit point; if the flip is refused the upload is removed.
func (s *LifecycleService) Submit(ctx context.Context, actorID, id uuid.UUID, sub Submission) (*models.Translation, error) {
	p, t, err := s.load(ctx, actorID, id)
	if err != nil {
		return nil, err
	}

	var key string
	if f, ok := sub.(FileSubmission); ok {
		if f.Body == nil || f.Size <= 0 {
			return nil, validationf("translated file is required")
		}
		// rules are checked before spending an upload
		if _, err := PlanSubmit(p, t, sub, "pending", s.now()); err != nil {
			return nil, err
		}
		key = storage.ObjectKey("translated", t.ID, f.FileName)
		if err := s.storage.Upload(ctx, key, f.Body, f.Size, f.ContentType); err != nil {
			return nil, fmt.Errorf("%w: failed to store translated file: %v", ErrUpstream, err)
		}
	}

	plan, err := PlanSubmit(p, t, sub, key, s.now())
	if err != nil {
		s.discard(key)
		return nil, err
	}
	out, err := s.apply(ctx, id, plan)
	if err != nil {
		if errors.Is(err, ErrStaleState) || errors.Is(err, ErrNotFound) {
			s.discard(key)
		}
		return nil, err
	}
	s.logger.Info("Translation submitted for review",
		zap.String("translation_id", id.String()),
		zap.String("translator_id", actorID.String()),
		zap.Bool("file", key != ""))
	return out, nil
}

func (s *LifecycleService) discard(key string) {
	if key == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.storage.Delete(ctx, key); err != nil {
		s.logger.Warn("Failed to remove orphaned upload", zap.String("key", key), zap.Error(err))
	}
}

func (s *LifecycleService) SaveDraft(ctx context.Context, actorID, id uuid.UUID, content, aiContent *string) (*models.Translation, error) {
	p, t, err := s.load(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	plan, err := PlanDraft(p, t, content, aiContent)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, id, plan)
}

func (s *LifecycleService) Approve(ctx context.Context, actorID, id uuid.UUID, notes *string) (*models.Translation, error) {
	p, t, err := s.load(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	plan, err := PlanApprove(p, t, notes, s.now())
	if err != nil {
		return nil, err
	}
	out, err := s.apply(ctx, id, plan)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Translation approved", zap.String("translation_id", id.String()), zap.String("admin_id", actorID.String()))
	return out, nil
}

func (s *LifecycleService) Reject(ctx context.Context, actorID, id uuid.UUID, notes *string) (*models.Translation, error) {
	p, t, err := s.load(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	plan, err := PlanReject(p, t, notes, s.now())
	if err != nil {
		return nil, err
	}
	out, err := s.apply(ctx, id, plan)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Translation rejected", zap.String("translation_id", id.String()), zap.String("admin_id", actorID.String()))
	return out, nil
}

// MarkPaymentFailed parks a pending job after a failed checkout.
func (s *LifecycleService) MarkPaymentFailed(ctx context.Context, id uuid.UUID) (*models.Translation, error) {
	t, err := s.translations.GetByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err, "translation")
	}
	plan, err := PlanPaymentFailed(t, s.now())
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, id, plan)
}

// RecordPayment stores the amount a completed checkout captured. A record
// left in payment_failed by an earlier attempt goes back to pending; any other
// status is kept, since an unpaid job may already have been claimed.
func (s *LifecycleService) RecordPayment(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*models.Translation, error) {
	return s.apply(ctx, id, Plan{Patch: models.TranslationPatch{AmountPaid: &amount, ReopenFailed: true}})
}

// canView: the owning client, the assigned translator, any admin, and approved
// translators for jobs still on the feed.
func canView(p *models.Profile, t *models.Translation) bool {
	switch {
	case p.IsAdmin():
		return true
	case t.UserID == p.ID:
		return true
	case t.AssignedTo(p.ID):
		return true
	case p.Role == models.RoleTranslator && p.IsApprovedTranslator &&
		t.Status == models.StatusPending && t.TranslatorID == nil:
		return true
	}
	return false
}

func (s *LifecycleService) Get(ctx context.Context, actorID, id uuid.UUID) (*models.Translation, error) {
	p, t, err := s.load(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if !canView(p, t) {
		// do not leak existence
		return nil, fmt.Errorf("%w: translation", ErrNotFound)
	}
	return t, nil
}

// ListMine returns the caller's records: created ones for clients, assigned
// ones for translators, everything for admins.
func (s *LifecycleService) ListMine(ctx context.Context, actorID uuid.UUID, statuses []models.TranslationStatus, limit, offset int) ([]*models.Translation, error) {
	p, err := actor(ctx, s.profiles, actorID)
	if err != nil {
		return nil, err
	}
	for _, st := range statuses {
		if !st.Valid() {
			return nil, validationf("unknown status %q", st)
		}
	}

	filter := repository.TranslationFilter{Statuses: statuses, Limit: limit, Offset: offset}
	switch p.Role {
	case models.RoleClient:
		filter.UserID = &p.ID
	case models.RoleTranslator:
		filter.TranslatorID = &p.ID
	}

	list, err := s.translations.List(ctx, filter)
	if err != nil {
		return nil, fromRepo(err, "translations")
	}
	return list, nil
}

// ReviewQueue lists submissions waiting for an admin decision.
func (s *LifecycleService) ReviewQueue(ctx context.Context, actorID uuid.UUID, limit, offset int) ([]*models.Translation, error) {
	p, err := actor(ctx, s.profiles, actorID)
	if err != nil {
		return nil, err
	}
	if err := (AccessPolicy{}).Authorize(p, CapabilityAdmin); err != nil {
		return nil, err
	}
	list, err := s.translations.List(ctx, repository.TranslationFilter{
		Statuses: []models.TranslationStatus{models.StatusPendingAdminReview},
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return nil, fromRepo(err, "translations")
	}
	return list, nil
}

// FileURL issues a short-lived download link for one of the record's files.
func (s *LifecycleService) FileURL(ctx context.Context, actorID, id uuid.UUID, kind FileKind) (string, error) {
	t, err := s.Get(ctx, actorID, id)
	if err != nil {
		return "", err
	}

	var key string
	switch kind {
	case FileOriginal:
		key = t.FilePath
	case FileTranslated:
		if t.TranslatedFilePath != nil {
			key = *t.TranslatedFilePath
		}
	default:
		return "", validationf("unknown file kind %q", kind)
	}
	if key == "" {
		return "", fmt.Errorf("%w: %s file", ErrNotFound, kind)
	}

	url, err := s.storage.PresignedURL(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return "", fmt.Errorf("%w: %s file", ErrNotFound, kind)
		}
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return url, nil
}
