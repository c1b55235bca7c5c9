package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"globaltext/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func completedJob(db *memDB, translatorID uuid.UUID, price string) {
	db.addTranslation(&models.Translation{
		UserID:       uuid.New(),
		TranslatorID: &translatorID,
		Status:       models.StatusCompleted,
		PriceOffered: decimal.RequireFromString(price),
	})
}

func TestLedgerInsufficientBalance(t *testing.T) {
	db := newMemDB()
	ledger := NewBalanceLedger(fakeWithdrawals{db}, fakeProfiles{db}, zap.NewNop())
	translator := db.addProfile(models.RoleTranslator, true)
	completedJob(db, translator.ID, "50.00")
	completedJob(db, translator.ID, "30.00")

	available, err := ledger.AvailableBalance(context.Background(), translator.ID)
	if err != nil || available.StringFixed(2) != "80.00" {
		t.Fatalf("AvailableBalance() = %s, %v", available, err)
	}

	_, err = ledger.RequestWithdrawal(context.Background(), translator.ID, WithdrawalInput{
		Amount:         "100",
		PaymentMethod:  models.PaymentMethodPix,
		PaymentDetails: map[string]string{"pix_key": "translator@example.com"},
	})
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("error = %v, want ErrInsufficientBalance", err)
	}
	if len(db.withdrawals) != 0 {
		t.Errorf("withdrawal rows = %d, want 0", len(db.withdrawals))
	}
}

func TestLedgerConcurrentWithdrawalsNeverOverdraw(t *testing.T) {
	db := newMemDB()
	ctx := context.Background()
	ledger := NewBalanceLedger(fakeWithdrawals{db}, fakeProfiles{db}, zap.NewNop())
	translator := db.addProfile(models.RoleTranslator, true)
	completedJob(db, translator.ID, "80.00")

	const requests = 8
	errs := make([]error, requests)
	var wg sync.WaitGroup
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = ledger.RequestWithdrawal(ctx, translator.ID, WithdrawalInput{
				Amount:         "30",
				PaymentMethod:  models.PaymentMethodPix,
				PaymentDetails: map[string]string{"pix_key": "translator@example.com"},
			})
		}(i)
	}
	wg.Wait()

	accepted := 0
	for _, err := range errs {
		switch {
		case err == nil:
			accepted++
		case !errors.Is(err, ErrInsufficientBalance):
			t.Errorf("unexpected error = %v", err)
		}
	}
	if accepted != 2 {
		t.Errorf("accepted %d withdrawals of 30.00 against 80.00, want 2", accepted)
	}

	available, err := ledger.AvailableBalance(ctx, translator.ID)
	if err != nil {
		t.Fatal(err)
	}
	if available.IsNegative() || available.StringFixed(2) != "20.00" {
		t.Errorf("available = %s, want 20.00", available)
	}
}

func TestLedgerWithdrawalLifecycle(t *testing.T) {
	db := newMemDB()
	ctx := context.Background()
	ledger := NewBalanceLedger(fakeWithdrawals{db}, fakeProfiles{db}, zap.NewNop())
	translator := db.addProfile(models.RoleTranslator, true)
	admin := db.addProfile(models.RoleAdmin, false)
	completedJob(db, translator.ID, "80.00")

	w, err := ledger.RequestWithdrawal(ctx, translator.ID, WithdrawalInput{
		Amount:         "60.50",
		PaymentMethod:  models.PaymentMethodBankTransfer,
		PaymentDetails: map[string]string{"bank_name": "Banco", "account_number": "123-4"},
	})
	if err != nil {
		t.Fatalf("RequestWithdrawal() error = %v", err)
	}
	if w.Status != models.WithdrawalPending {
		t.Errorf("status = %s", w.Status)
	}

	sum, err := ledger.Summary(ctx, translator.ID)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Available.StringFixed(2) != "19.50" || sum.Pending.StringFixed(2) != "60.50" {
		t.Errorf("summary = %+v", sum)
	}

	// the reserved amount cannot be spent twice
	if _, err := ledger.RequestWithdrawal(ctx, translator.ID, WithdrawalInput{
		Amount:         "20",
		PaymentMethod:  models.PaymentMethodPayPal,
		PaymentDetails: map[string]string{"email": "t@example.com"},
	}); !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("second request error = %v", err)
	}

	if _, err := ledger.MarkCompleted(ctx, translator.ID, w.ID); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("translator completing own withdrawal error = %v", err)
	}
	done, err := ledger.MarkCompleted(ctx, admin.ID, w.ID)
	if err != nil {
		t.Fatalf("MarkCompleted() error = %v", err)
	}
	if done.Status != models.WithdrawalCompleted || done.ProcessedBy == nil || *done.ProcessedBy != admin.ID {
		t.Errorf("completed = %+v", done)
	}
	if _, err := ledger.MarkCompleted(ctx, admin.ID, w.ID); !errors.Is(err, ErrStaleState) {
		t.Errorf("second completion error = %v, want ErrStaleState", err)
	}

	sum, _ = ledger.Summary(ctx, translator.ID)
	if sum.Withdrawn.StringFixed(2) != "60.50" || sum.Available.StringFixed(2) != "19.50" {
		t.Errorf("summary after payout = %+v", sum)
	}
	if len(db.notificationsFor(translator.ID)) != 1 {
		t.Error("payout should notify the translator")
	}
}

func TestLedgerRejectReleasesFunds(t *testing.T) {
	db := newMemDB()
	ctx := context.Background()
	ledger := NewBalanceLedger(fakeWithdrawals{db}, fakeProfiles{db}, zap.NewNop())
	translator := db.addProfile(models.RoleTranslator, true)
	admin := db.addProfile(models.RoleAdmin, false)
	completedJob(db, translator.ID, "10.00")

	w, err := ledger.RequestWithdrawal(ctx, translator.ID, WithdrawalInput{
		Amount:         "10",
		PaymentMethod:  models.PaymentMethodPix,
		PaymentDetails: map[string]string{"pix_key": "k"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ledger.Reject(ctx, admin.ID, w.ID); err != nil {
		t.Fatal(err)
	}
	available, _ := ledger.AvailableBalance(ctx, translator.ID)
	if available.StringFixed(2) != "10.00" {
		t.Errorf("available = %s, want 10.00", available)
	}
}

func TestLedgerValidation(t *testing.T) {
	db := newMemDB()
	ledger := NewBalanceLedger(fakeWithdrawals{db}, fakeProfiles{db}, zap.NewNop())
	translator := db.addProfile(models.RoleTranslator, true)
	client := db.addProfile(models.RoleClient, false)
	completedJob(db, translator.ID, "100.00")

	tests := []struct {
		name  string
		actor uuid.UUID
		in    WithdrawalInput
		want  error
	}{
		{"not a number", translator.ID, WithdrawalInput{Amount: "ten", PaymentMethod: models.PaymentMethodPix, PaymentDetails: map[string]string{"pix_key": "k"}}, ErrValidation},
		{"negative", translator.ID, WithdrawalInput{Amount: "-5", PaymentMethod: models.PaymentMethodPix, PaymentDetails: map[string]string{"pix_key": "k"}}, ErrValidation},
		{"fractions of a cent", translator.ID, WithdrawalInput{Amount: "1.005", PaymentMethod: models.PaymentMethodPix, PaymentDetails: map[string]string{"pix_key": "k"}}, ErrValidation},
		{"unknown method", translator.ID, WithdrawalInput{Amount: "5", PaymentMethod: "cash"}, ErrValidation},
		{"missing pix key", translator.ID, WithdrawalInput{Amount: "5", PaymentMethod: models.PaymentMethodPix, PaymentDetails: map[string]string{"pix_key": " "}}, ErrValidation},
		{"missing account", translator.ID, WithdrawalInput{Amount: "5", PaymentMethod: models.PaymentMethodBankTransfer, PaymentDetails: map[string]string{"bank_name": "B"}}, ErrValidation},
		{"client", client.ID, WithdrawalInput{Amount: "5", PaymentMethod: models.PaymentMethodPix, PaymentDetails: map[string]string{"pix_key": "k"}}, ErrPermissionDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ledger.RequestWithdrawal(context.Background(), tt.actor, tt.in); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}
