package service

import (
	"fmt"
	"io"
	"strings"
	"time"

	"globaltext/internal/models"

	"github.com/google/uuid"
)

// Submission is either a FileSubmission or a TextSubmission.
type Submission interface {
	isSubmission()
}

// FileSubmission carries a translated artifact that is uploaded before the
// status changes.
type FileSubmission struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// TextSubmission submits the translated text directly. The source content
// of the record is never overwritten.
type TextSubmission struct {
	Content             string
	AITranslatedContent *string
}

func (FileSubmission) isSubmission() {}
func (TextSubmission) isSubmission() {}

// Plan is the conditional write a transition resolves to.
type Plan struct {
	Guard         models.TransitionGuard
	Patch         models.TranslationPatch
	Notifications []models.Notification
}

func statusPtr(s models.TranslationStatus) *models.TranslationStatus { return &s }

func reviewPtr(s models.AdminReviewStatus) *models.AdminReviewStatus { return &s }

func notification(userID uuid.UUID, title, message string, now time.Time) models.Notification {
	return models.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		CreatedAt: now,
	}
}

func requireStatus(t *models.Translation, allowed ...models.TranslationStatus) error {
	for _, s := range allowed {
		if t.Status == s {
			return nil
		}
	}
	return fmt.Errorf("%w: translation %s is %s", ErrStaleState, t.ID, t.Status)
}

func requireOwner(actor *models.Profile, t *models.Translation) error {
	if !t.AssignedTo(actor.ID) {
		return fmt.Errorf("%w: translation %s is not assigned to you", ErrPermissionDenied, t.ID)
	}
	return nil
}

// PlanClaim: pending and unassigned -> in_progress, owned by the actor.
func PlanClaim(actor *models.Profile, t *models.Translation) (Plan, error) {
	if err := (AccessPolicy{}).Authorize(actor, CapabilityTranslator); err != nil {
		return Plan{}, err
	}
	if err := requireStatus(t, models.StatusPending); err != nil {
		return Plan{}, err
	}
	if t.TranslatorID != nil {
		return Plan{}, fmt.Errorf("%w: translation %s is already claimed", ErrStaleState, t.ID)
	}

	id := actor.ID
	return Plan{
		Guard: models.TransitionGuard{From: []models.TranslationStatus{models.StatusPending}, Unassigned: true},
		Patch: models.TranslationPatch{Status: statusPtr(models.StatusInProgress), TranslatorID: &id},
	}, nil
}

// PlanDecline hands an in-progress job back to the feed.
func PlanDecline(actor *models.Profile, t *models.Translation) (Plan, error) {
	if err := (AccessPolicy{}).Authorize(actor, CapabilityTranslator); err != nil {
		return Plan{}, err
	}
	if err := requireOwner(actor, t); err != nil {
		return Plan{}, err
	}
	if err := requireStatus(t, models.StatusInProgress); err != nil {
		return Plan{}, err
	}

	id := actor.ID
	return Plan{
		Guard: models.TransitionGuard{From: []models.TranslationStatus{models.StatusInProgress}, TranslatorID: &id},
		Patch: models.TranslationPatch{Status: statusPtr(models.StatusPending), ClearTranslator: true, ClearWork: true},
	}, nil
}

// PlanSubmit moves the job to admin review. filePath is the storage key of an
// already uploaded FileSubmission and is ignored for text submissions.
func PlanSubmit(actor *models.Profile, t *models.Translation, sub Submission, filePath string, now time.Time) (Plan, error) {
	if err := (AccessPolicy{}).Authorize(actor, CapabilityTranslator); err != nil {
		return Plan{}, err
	}
	if err := requireOwner(actor, t); err != nil {
		return Plan{}, err
	}
	if err := requireStatus(t, models.StatusInProgress, models.StatusPendingReview); err != nil {
		return Plan{}, err
	}

	id := actor.ID
	plan := Plan{
		Guard: models.TransitionGuard{
			From:         []models.TranslationStatus{models.StatusInProgress, models.StatusPendingReview},
			TranslatorID: &id,
		},
		Patch: models.TranslationPatch{Status: statusPtr(models.StatusPendingAdminReview)},
	}

	switch s := sub.(type) {
	case FileSubmission:
		if filePath == "" {
			return Plan{}, validationf("translated file is required")
		}
		plan.Patch.TranslatedFilePath = &filePath
		plan.Patch.CompletedAt = &now
	case TextSubmission:
		if strings.TrimSpace(s.Content) == "" {
			return Plan{}, validationf("translated content is required")
		}
		content := s.Content
		plan.Patch.TranslatedContent = &content
		plan.Patch.AITranslatedContent = s.AITranslatedContent
	default:
		return Plan{}, validationf("unknown submission")
	}
	return plan, nil
}

// PlanDraft stores work in progress without touching the status.
func PlanDraft(actor *models.Profile, t *models.Translation, content, aiContent *string) (Plan, error) {
	if err := (AccessPolicy{}).Authorize(actor, CapabilityTranslator); err != nil {
		return Plan{}, err
	}
	if err := requireOwner(actor, t); err != nil {
		return Plan{}, err
	}
	if err := requireStatus(t, models.StatusInProgress, models.StatusPendingReview); err != nil {
		return Plan{}, err
	}
	if content == nil && aiContent == nil {
		return Plan{}, validationf("nothing to save")
	}

	id := actor.ID
	return Plan{
		Guard: models.TransitionGuard{
			From:         []models.TranslationStatus{models.StatusInProgress, models.StatusPendingReview},
			TranslatorID: &id,
		},
		Patch: models.TranslationPatch{TranslatedContent: content, AITranslatedContent: aiContent},
	}, nil
}

func PlanApprove(actor *models.Profile, t *models.Translation, notes *string, now time.Time) (Plan, error) {
	if err := (AccessPolicy{}).Authorize(actor, CapabilityAdmin); err != nil {
		return Plan{}, err
	}
	if err := requireStatus(t, models.StatusPendingAdminReview); err != nil {
		return Plan{}, err
	}
	if t.TranslatorID == nil {
		return Plan{}, fmt.Errorf("%w: translation %s has no translator", ErrStaleState, t.ID)
	}

	plan := Plan{
		Guard: models.TransitionGuard{From: []models.TranslationStatus{models.StatusPendingAdminReview}, TranslatorID: t.TranslatorID},
		Patch: models.TranslationPatch{
			Status:            statusPtr(models.StatusCompleted),
			AdminReviewStatus: reviewPtr(models.ReviewApproved),
			AdminReviewNotes:  notes,
			AdminReviewedAt:   &now,
		},
		Notifications: []models.Notification{
			notification(t.UserID, "Translation completed",
				fmt.Sprintf("Your translation of %q is ready.", t.DocumentName), now),
			notification(*t.TranslatorID, "Translation approved",
				fmt.Sprintf("Your work on %q was approved.", t.DocumentName), now),
		},
	}
	return plan, nil
}

func PlanReject(actor *models.Profile, t *models.Translation, notes *string, now time.Time) (Plan, error) {
	if err := (AccessPolicy{}).Authorize(actor, CapabilityAdmin); err != nil {
		return Plan{}, err
	}
	if err := requireStatus(t, models.StatusPendingAdminReview); err != nil {
		return Plan{}, err
	}
	if t.TranslatorID == nil {
		return Plan{}, fmt.Errorf("%w: translation %s has no translator", ErrStaleState, t.ID)
	}

	message := fmt.Sprintf("Your work on %q needs changes.", t.DocumentName)
	if notes != nil && *notes != "" {
		message += " Notes: " + *notes
	}
	return Plan{
		Guard: models.TransitionGuard{From: []models.TranslationStatus{models.StatusPendingAdminReview}, TranslatorID: t.TranslatorID},
		Patch: models.TranslationPatch{
			Status:            statusPtr(models.StatusPendingReview),
			AdminReviewStatus: reviewPtr(models.ReviewRejected),
			AdminReviewNotes:  notes,
			AdminReviewedAt:   &now,
		},
		Notifications: []models.Notification{
			notification(*t.TranslatorID, "Translation returned", message, now),
		},
	}, nil
}

// PlanPaymentFailed is driven by the payment webhook, not by a user. A failure
// that arrives after a successful capture, or for a job covered by a
// subscription, is stale.
func PlanPaymentFailed(t *models.Translation, now time.Time) (Plan, error) {
	if err := requireStatus(t, models.StatusPending); err != nil {
		return Plan{}, err
	}
	if t.AmountPaid.IsPositive() || t.SubscriptionID != nil {
		return Plan{}, fmt.Errorf("%w: translation is already paid", ErrStaleState)
	}
	return Plan{
		Guard: models.TransitionGuard{From: []models.TranslationStatus{models.StatusPending}, Unassigned: true, Unpaid: true},
		Patch: models.TranslationPatch{Status: statusPtr(models.StatusPaymentFailed)},
		Notifications: []models.Notification{
			notification(t.UserID, "Payment failed",
				fmt.Sprintf("The payment for %q did not go through.", t.DocumentName), now),
		},
	}, nil
}
