package dto

import (
	"time"

	"globaltext/internal/models"
)

// Amount is a decimal string ("100.00") so no precision is lost in transit.
type CreateWithdrawalRequest struct {
	Amount         string            `json:"amount" validate:"required,numeric"`
	PaymentMethod  string            `json:"payment_method" validate:"required,oneof=pix bank_transfer paypal"`
	PaymentDetails map[string]string `json:"payment_details" validate:"required"`
}

type WithdrawalResponse struct {
	ID             string            `json:"id"`
	TranslatorID   string            `json:"translator_id"`
	Amount         string            `json:"amount"`
	PaymentMethod  string            `json:"payment_method"`
	PaymentDetails map[string]string `json:"payment_details"`
	Status         string            `json:"status"`
	CreatedAt      time.Time         `json:"created_at"`
	ProcessedAt    *time.Time        `json:"processed_at,omitempty"`
	ProcessedBy    *string           `json:"processed_by,omitempty"`
}

func NewWithdrawalResponse(w *models.WithdrawalRequest) WithdrawalResponse {
	resp := WithdrawalResponse{
		ID:             w.ID.String(),
		TranslatorID:   w.TranslatorID.String(),
		Amount:         w.Amount.StringFixed(2),
		PaymentMethod:  string(w.PaymentMethod),
		PaymentDetails: w.PaymentDetails,
		Status:         string(w.Status),
		CreatedAt:      w.CreatedAt,
		ProcessedAt:    w.ProcessedAt,
	}
	if w.ProcessedBy != nil {
		id := w.ProcessedBy.String()
		resp.ProcessedBy = &id
	}
	return resp
}

func NewWithdrawalList(list []*models.WithdrawalRequest) []WithdrawalResponse {
	out := make([]WithdrawalResponse, 0, len(list))
	for _, w := range list {
		out = append(out, NewWithdrawalResponse(w))
	}
	return out
}

type BalanceResponse struct {
	Earned         string `json:"earned"`
	Pending        string `json:"pending"`
	Withdrawn      string `json:"withdrawn"`
	Available      string `json:"available"`
	CompletedCount int    `json:"completed_count"`
}
