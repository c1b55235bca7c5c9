package dto

import (
	"time"

	"globaltext/internal/models"
)

// CheckoutRequest pays either for one translation or for a plan.
type CheckoutRequest struct {
	TranslationID string `json:"translation_id" validate:"required_without=Plan,omitempty,uuid"`
	Plan          string `json:"plan" validate:"required_without=TranslationID"`
}

type CheckoutResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

type PlanResponse struct {
	Name       string `json:"name"`
	Title      string `json:"title"`
	Price      string `json:"price"`
	Words      *int   `json:"words,omitempty"`
	Unlimited  bool   `json:"unlimited"`
	PeriodDays int    `json:"period_days"`
}

type SubscriptionResponse struct {
	ID             string     `json:"id"`
	PlanName       string     `json:"plan_name"`
	Status         string     `json:"status"`
	Active         bool       `json:"active"`
	WordsRemaining *int       `json:"words_remaining,omitempty"`
	Unlimited      bool       `json:"unlimited"`
	StartedAt      time.Time  `json:"started_at"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	AmountPaid     string     `json:"amount_paid"`
}

func NewSubscriptionResponse(s *models.Subscription, now time.Time) SubscriptionResponse {
	return SubscriptionResponse{
		ID:             s.ID.String(),
		PlanName:       s.PlanName,
		Status:         string(s.Status),
		Active:         s.Active(now),
		WordsRemaining: s.WordsRemaining,
		Unlimited:      s.Unlimited(),
		StartedAt:      s.StartedAt,
		ExpiresAt:      s.ExpiresAt,
		AmountPaid:     s.AmountPaid.StringFixed(2),
	}
}
