package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TranslationStatus string

const (
	StatusPending            TranslationStatus = "pending"
	StatusInProgress         TranslationStatus = "in_progress"
	StatusPendingReview      TranslationStatus = "pending_review"
	StatusPendingAdminReview TranslationStatus = "pending_admin_review"
	StatusCompleted          TranslationStatus = "completed"
	StatusPaymentFailed      TranslationStatus = "payment_failed"
)

func (s TranslationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusPendingReview,
		StatusPendingAdminReview, StatusCompleted, StatusPaymentFailed:
		return true
	}
	return false
}

// Assigned reports whether a record in this status must carry a translator.
func (s TranslationStatus) Assigned() bool {
	switch s {
	case StatusInProgress, StatusPendingReview, StatusPendingAdminReview, StatusCompleted:
		return true
	}
	return false
}

type AdminReviewStatus string

const (
	ReviewApproved AdminReviewStatus = "approved"
	ReviewRejected AdminReviewStatus = "rejected"
)

type Translation struct {
	ID                  uuid.UUID          `db:"id"`
	UserID              uuid.UUID          `db:"user_id"`
	TranslatorID        *uuid.UUID         `db:"translator_id"`
	DocumentName        string             `db:"document_name"`
	SourceLanguage      string             `db:"source_language"`
	TargetLanguage      string             `db:"target_language"`
	WordCount           int                `db:"word_count"`
	Content             string             `db:"content"`
	TranslatedContent   *string            `db:"translated_content"`
	AITranslatedContent *string            `db:"ai_translated_content"`
	FilePath            string             `db:"file_path"`
	TranslatedFilePath  *string            `db:"translated_file_path"`
	PriceOffered        decimal.Decimal    `db:"price_offered"`
	AmountPaid          decimal.Decimal    `db:"amount_paid"`
	SubscriptionID      *uuid.UUID         `db:"subscription_id"`
	Status              TranslationStatus  `db:"status"`
	AdminReviewStatus   *AdminReviewStatus `db:"admin_review_status"`
	AdminReviewNotes    *string            `db:"admin_review_notes"`
	CreatedAt           time.Time          `db:"created_at"`
	UpdatedAt           time.Time          `db:"updated_at"`
	CompletedAt         *time.Time         `db:"completed_at"`
	AdminReviewedAt     *time.Time         `db:"admin_reviewed_at"`
}

func (t *Translation) AssignedTo(id uuid.UUID) bool {
	return t.TranslatorID != nil && *t.TranslatorID == id
}

// AvailableTranslation is a feed row: an unclaimed pending record with the
// client's display name attached.
type AvailableTranslation struct {
	Translation
	ClientName string `db:"client_name"`
}
