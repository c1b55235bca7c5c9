package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"globaltext/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BalanceSummary is what the earnings view shows. Earnings are the
// price_offered of completed jobs; there is no separate payout rate.
type BalanceSummary struct {
	Earned         decimal.Decimal `json:"earned"`
	Pending        decimal.Decimal `json:"pending"`
	Withdrawn      decimal.Decimal `json:"withdrawn"`
	Available      decimal.Decimal `json:"available"`
	CompletedCount int             `json:"completed_count"`
}

func summarize(b models.Balance) BalanceSummary {
	return BalanceSummary{
		Earned:         b.Earned,
		Pending:        b.Reserved.Sub(b.Withdrawn),
		Withdrawn:      b.Withdrawn,
		Available:      b.Available(),
		CompletedCount: b.CompletedCount,
	}
}

type WithdrawalInput struct {
	Amount         string
	PaymentMethod  models.PaymentMethod
	PaymentDetails map[string]string
}

var requiredPaymentDetails = map[models.PaymentMethod][]string{
	models.PaymentMethodPix:          {"pix_key"},
	models.PaymentMethodBankTransfer: {"bank_name", "account_number"},
	models.PaymentMethodPayPal:       {"email"},
}

// BalanceLedger derives translator balances and manages withdrawal requests.
type BalanceLedger struct {
	withdrawals WithdrawalStore
	profiles    ProfileStore
	logger      *zap.Logger
	now         func() time.Time
}

func NewBalanceLedger(withdrawals WithdrawalStore, profiles ProfileStore, logger *zap.Logger) *BalanceLedger {
	return &BalanceLedger{
		withdrawals: withdrawals,
		profiles:    profiles,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (l *BalanceLedger) translator(ctx context.Context, actorID uuid.UUID) (*models.Profile, error) {
	p, err := actor(ctx, l.profiles, actorID)
	if err != nil {
		return nil, err
	}
	if err := (AccessPolicy{}).Authorize(p, CapabilityTranslator); err != nil {
		return nil, err
	}
	return p, nil
}

func (l *BalanceLedger) Summary(ctx context.Context, actorID uuid.UUID) (BalanceSummary, error) {
	if _, err := l.translator(ctx, actorID); err != nil {
		return BalanceSummary{}, err
	}
	b, err := l.withdrawals.Balance(ctx, actorID)
	if err != nil {
		return BalanceSummary{}, fromRepo(err, "balance")
	}
	return summarize(b), nil
}

func (l *BalanceLedger) AvailableBalance(ctx context.Context, translatorID uuid.UUID) (decimal.Decimal, error) {
	b, err := l.withdrawals.Balance(ctx, translatorID)
	if err != nil {
		return decimal.Zero, fromRepo(err, "balance")
	}
	return b.Available(), nil
}

func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, validationf("amount %q is not a number", raw)
	}
	if !amount.IsPositive() {
		return decimal.Zero, validationf("amount must be positive")
	}
	if !amount.Equal(amount.Round(2)) {
		return decimal.Zero, validationf("amount has more than two decimal places")
	}
	return amount, nil
}

func validatePaymentDetails(method models.PaymentMethod, details map[string]string) (map[string]string, error) {
	required, ok := requiredPaymentDetails[method]
	if !ok {
		return nil, validationf("unknown payment method %q", method)
	}
	clean := make(map[string]string, len(details))
	for k, v := range details {
		if v = strings.TrimSpace(v); v != "" {
			clean[k] = v
		}
	}
	for _, key := range required {
		if clean[key] == "" {
			return nil, validationf("%s requires %s", method, key)
		}
	}
	return clean, nil
}

// RequestWithdrawal checks the balance and inserts the request atomically.
func (l *BalanceLedger) RequestWithdrawal(ctx context.Context, actorID uuid.UUID, in WithdrawalInput) (*models.WithdrawalRequest, error) {
	if _, err := l.translator(ctx, actorID); err != nil {
		return nil, err
	}
	amount, err := parseAmount(in.Amount)
	if err != nil {
		return nil, err
	}
	details, err := validatePaymentDetails(in.PaymentMethod, in.PaymentDetails)
	if err != nil {
		return nil, err
	}

	w := &models.WithdrawalRequest{
		ID:             uuid.New(),
		TranslatorID:   actorID,
		Amount:         amount,
		PaymentMethod:  in.PaymentMethod,
		PaymentDetails: details,
		Status:         models.WithdrawalPending,
		CreatedAt:      l.now(),
	}
	b, err := l.withdrawals.CreateChecked(ctx, w)
	if err != nil {
		if err = fromRepo(err, "withdrawal"); err != nil {
			l.logger.Info("Withdrawal refused",
				zap.String("translator_id", actorID.String()),
				zap.String("amount", amount.StringFixed(2)),
				zap.String("available", b.Available().StringFixed(2)),
				zap.Error(err))
		}
		return nil, err
	}

	l.logger.Info("Withdrawal requested",
		zap.String("withdrawal_id", w.ID.String()),
		zap.String("translator_id", actorID.String()),
		zap.String("amount", amount.StringFixed(2)),
		zap.String("method", string(in.PaymentMethod)))
	return w, nil
}

func (l *BalanceLedger) ListMine(ctx context.Context, actorID uuid.UUID, limit, offset int) ([]*models.WithdrawalRequest, error) {
	if _, err := l.translator(ctx, actorID); err != nil {
		return nil, err
	}
	list, err := l.withdrawals.List(ctx, &actorID, nil, limit, offset)
	if err != nil {
		return nil, fromRepo(err, "withdrawals")
	}
	return list, nil
}

func (l *BalanceLedger) ListAll(ctx context.Context, actorID uuid.UUID, status *models.WithdrawalStatus, limit, offset int) ([]*models.WithdrawalRequest, error) {
	if err := l.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	list, err := l.withdrawals.List(ctx, nil, status, limit, offset)
	if err != nil {
		return nil, fromRepo(err, "withdrawals")
	}
	return list, nil
}

// MarkCompleted records that the payout was sent. Only pending requests qualify.
func (l *BalanceLedger) MarkCompleted(ctx context.Context, actorID, requestID uuid.UUID) (*models.WithdrawalRequest, error) {
	return l.transition(ctx, actorID, requestID, models.WithdrawalCompleted, func(w *models.WithdrawalRequest) models.Notification {
		return notification(w.TranslatorID, "Withdrawal paid",
			fmt.Sprintf("Your withdrawal of %s via %s was paid.", w.Amount.StringFixed(2), w.PaymentMethod), l.now())
	})
}

// Reject releases the reserved amount back to the available balance.
func (l *BalanceLedger) Reject(ctx context.Context, actorID, requestID uuid.UUID) (*models.WithdrawalRequest, error) {
	return l.transition(ctx, actorID, requestID, models.WithdrawalRejected, func(w *models.WithdrawalRequest) models.Notification {
		return notification(w.TranslatorID, "Withdrawal rejected",
			fmt.Sprintf("Your withdrawal of %s was rejected and returned to your balance.", w.Amount.StringFixed(2)), l.now())
	})
}

func (l *BalanceLedger) transition(
	ctx context.Context,
	actorID, requestID uuid.UUID,
	to models.WithdrawalStatus,
	notify func(*models.WithdrawalRequest) models.Notification,
) (*models.WithdrawalRequest, error) {
	if err := l.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	w, err := l.withdrawals.Transition(ctx, requestID, models.WithdrawalPending, to, actorID, notify)
	if err != nil {
		return nil, fromRepo(err, "withdrawal "+requestID.String())
	}
	l.logger.Info("Withdrawal processed",
		zap.String("withdrawal_id", requestID.String()),
		zap.String("status", string(to)),
		zap.String("admin_id", actorID.String()))
	return w, nil
}

func (l *BalanceLedger) requireAdmin(ctx context.Context, actorID uuid.UUID) error {
	p, err := actor(ctx, l.profiles, actorID)
	if err != nil {
		return err
	}
	return AccessPolicy{}.Authorize(p, CapabilityAdmin)
}
