package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

type Subscription struct {
	ID             uuid.UUID          `db:"id"`
	UserID         uuid.UUID          `db:"user_id"`
	PlanName       string             `db:"plan_name"`
	Status         SubscriptionStatus `db:"status"`
	WordsRemaining *int               `db:"words_remaining"`
	StartedAt      time.Time          `db:"started_at"`
	ExpiresAt      *time.Time         `db:"expires_at"`
	AmountPaid     decimal.Decimal    `db:"amount_paid"`
	ExternalID     *string            `db:"external_id"`
	CreatedAt      time.Time          `db:"created_at"`
	UpdatedAt      time.Time          `db:"updated_at"`
}

// Unlimited is true for plans that never run out of words.
func (s *Subscription) Unlimited() bool {
	return s.WordsRemaining == nil
}

// Active compares against the clock; there is no background expiry.
func (s *Subscription) Active(now time.Time) bool {
	if s.Status != SubscriptionActive {
		return false
	}
	return s.ExpiresAt == nil || now.Before(*s.ExpiresAt)
}

// Covers reports whether the subscription can absorb a document of the given size.
func (s *Subscription) Covers(words int, now time.Time) bool {
	if !s.Active(now) {
		return false
	}
	return s.Unlimited() || *s.WordsRemaining >= words
}
