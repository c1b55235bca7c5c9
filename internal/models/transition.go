package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransitionGuard describes the row state a conditional update requires.
// An empty From matches any status.
type TransitionGuard struct {
	From         []TranslationStatus
	Unassigned   bool
	TranslatorID *uuid.UUID
	// Unpaid requires amount_paid = 0 and no subscription.
	Unpaid bool
}

// TranslationPatch lists the columns a transition writes. Nil fields are left untouched.
type TranslationPatch struct {
	Status              *TranslationStatus
	TranslatorID        *uuid.UUID
	ClearTranslator     bool
	TranslatedContent   *string
	AITranslatedContent *string
	TranslatedFilePath  *string
	// ClearWork drops the translated text, machine output and file of the
	// previous translator.
	ClearWork         bool
	AdminReviewStatus *AdminReviewStatus
	AdminReviewNotes  *string
	CompletedAt       *time.Time
	AdminReviewedAt   *time.Time
	AmountPaid        *decimal.Decimal
	// ReopenFailed moves a payment_failed record back to pending and leaves
	// any other status alone.
	ReopenFailed bool
}
