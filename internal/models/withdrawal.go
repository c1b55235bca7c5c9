package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type WithdrawalStatus string

const (
	WithdrawalPending   WithdrawalStatus = "pending"
	WithdrawalApproved  WithdrawalStatus = "approved"
	WithdrawalRejected  WithdrawalStatus = "rejected"
	WithdrawalCompleted WithdrawalStatus = "completed"
)

// Reserving statuses count against the translator's available balance.
var ReservingWithdrawalStatuses = []WithdrawalStatus{
	WithdrawalPending, WithdrawalApproved, WithdrawalCompleted,
}

type PaymentMethod string

const (
	PaymentMethodPix          PaymentMethod = "pix"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodPayPal       PaymentMethod = "paypal"
)

type WithdrawalRequest struct {
	ID             uuid.UUID         `db:"id"`
	TranslatorID   uuid.UUID         `db:"translator_id"`
	Amount         decimal.Decimal   `db:"amount"`
	PaymentMethod  PaymentMethod     `db:"payment_method"`
	PaymentDetails map[string]string `db:"payment_details"`
	Status         WithdrawalStatus  `db:"status"`
	CreatedAt      time.Time         `db:"created_at"`
	ProcessedAt    *time.Time        `db:"processed_at"`
	ProcessedBy    *uuid.UUID        `db:"processed_by"`
}

// Balance is the derived ledger view for one translator.
type Balance struct {
	Earned         decimal.Decimal
	Reserved       decimal.Decimal
	Withdrawn      decimal.Decimal
	CompletedCount int
}

func (b Balance) Available() decimal.Decimal {
	return b.Earned.Sub(b.Reserved)
}
