package repository

import (
	"errors"
	"strings"
	"testing"
	"time"

	"globaltext/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

func ptr[T any](v T) *T { return &v }

func TestBuildTransitionClaim(t *testing.T) {
	id := uuid.New()
	translator := uuid.New()
	status := models.StatusInProgress

	sql, args, err := buildTransition(id,
		models.TransitionGuard{From: []models.TranslationStatus{models.StatusPending}, Unassigned: true},
		models.TranslationPatch{Status: &status, TranslatorID: &translator},
		time.Now(),
	).ToSql()
	if err != nil {
		t.Fatalf("ToSql() error = %v", err)
	}

	for _, want := range []string{
		"UPDATE translations SET updated_at = $1, status = $2, translator_id = $3",
		"WHERE id = $4 AND status IN ($5) AND translator_id IS NULL",
		"RETURNING id, user_id, translator_id",
	} {
		if !strings.Contains(sql, want) {
			t.Errorf("sql %q missing %q", sql, want)
		}
	}
	if len(args) != 5 {
		t.Fatalf("got %d args, want 5", len(args))
	}
	if args[1] != "in_progress" || args[4] != "pending" {
		t.Errorf("args = %v", args)
	}
}

func TestBuildTransitionDeclineClearsTranslator(t *testing.T) {
	actor := uuid.New()
	status := models.StatusPending

	sql, args, err := buildTransition(uuid.New(),
		models.TransitionGuard{From: []models.TranslationStatus{models.StatusInProgress}, TranslatorID: &actor},
		models.TranslationPatch{Status: &status, ClearTranslator: true},
		time.Now(),
	).ToSql()
	if err != nil {
		t.Fatalf("ToSql() error = %v", err)
	}
	if !strings.Contains(sql, "translator_id = $3") || !strings.Contains(sql, "AND translator_id = $6") {
		t.Errorf("sql = %q", sql)
	}
	if args[2] != nil {
		t.Errorf("translator_id set to %v, want nil", args[2])
	}
	if args[5] != actor {
		t.Errorf("guard arg = %v, want %v", args[5], actor)
	}
}

func TestBuildTransitionDeclineDropsWork(t *testing.T) {
	actor := uuid.New()
	status := models.StatusPending

	sql, args, err := buildTransition(uuid.New(),
		models.TransitionGuard{From: []models.TranslationStatus{models.StatusInProgress}, TranslatorID: &actor},
		models.TranslationPatch{Status: &status, ClearTranslator: true, ClearWork: true},
		time.Now(),
	).ToSql()
	if err != nil {
		t.Fatalf("ToSql() error = %v", err)
	}
	want := "translated_content = $4, ai_translated_content = $5, translated_file_path = $6"
	if !strings.Contains(sql, want) {
		t.Errorf("sql %q missing %q", sql, want)
	}
	if strings.Contains(sql, " content = ") {
		t.Errorf("source content must not be written: %q", sql)
	}
	for i := 3; i <= 5; i++ {
		if args[i] != nil {
			t.Errorf("args[%d] = %v, want nil", i, args[i])
		}
	}
}

func TestBuildTransitionRecordPaymentReopensFailed(t *testing.T) {
	amount := decimal.RequireFromString("40.00")

	sql, args, err := buildTransition(uuid.New(),
		models.TransitionGuard{},
		models.TranslationPatch{AmountPaid: &amount, ReopenFailed: true},
		time.Now(),
	).ToSql()
	if err != nil {
		t.Fatalf("ToSql() error = %v", err)
	}
	want := "amount_paid = $2, status = CASE WHEN status = $3 THEN $4 ELSE status END WHERE id = $5"
	if !strings.Contains(sql, want) {
		t.Errorf("sql %q missing %q", sql, want)
	}
	if args[2] != "payment_failed" || args[3] != "pending" {
		t.Errorf("args = %v", args)
	}
}

func TestBuildTransitionPaymentFailedRequiresUnpaid(t *testing.T) {
	status := models.StatusPaymentFailed

	sql, _, err := buildTransition(uuid.New(),
		models.TransitionGuard{From: []models.TranslationStatus{models.StatusPending}, Unassigned: true, Unpaid: true},
		models.TranslationPatch{Status: &status},
		time.Now(),
	).ToSql()
	if err != nil {
		t.Fatalf("ToSql() error = %v", err)
	}
	for _, want := range []string{"translator_id IS NULL", "amount_paid = $5", "subscription_id IS NULL"} {
		if !strings.Contains(sql, want) {
			t.Errorf("sql %q missing %q", sql, want)
		}
	}
}

func TestBuildTranslatorLock(t *testing.T) {
	translator := uuid.New()
	sql, args, err := buildTranslatorLock(translator).ToSql()
	if err != nil {
		t.Fatalf("ToSql() error = %v", err)
	}
	if sql != "SELECT id FROM profiles WHERE id = $1 FOR UPDATE" {
		t.Errorf("sql = %q", sql)
	}
	if len(args) != 1 || args[0] != translator {
		t.Errorf("args = %v", args)
	}
}

func TestBuildTransitionSubmitFromTwoStatuses(t *testing.T) {
	actor := uuid.New()
	status := models.StatusPendingAdminReview
	path := "translated/x.pdf"
	now := time.Now()

	sql, _, err := buildTransition(uuid.New(),
		models.TransitionGuard{
			From:         []models.TranslationStatus{models.StatusInProgress, models.StatusPendingReview},
			TranslatorID: &actor,
		},
		models.TranslationPatch{Status: &status, TranslatedFilePath: &path, CompletedAt: &now},
		now,
	).ToSql()
	if err != nil {
		t.Fatalf("ToSql() error = %v", err)
	}
	if !strings.Contains(sql, "status IN ($") || !strings.Contains(sql, "translated_file_path = ") {
		t.Errorf("sql = %q", sql)
	}
	if strings.Count(sql, "$") != 8 {
		t.Errorf("unexpected placeholder count in %q", sql)
	}
}

func TestBuildAvailableQuery(t *testing.T) {
	sql, args, err := buildAvailableQuery(20, 40).ToSql()
	if err != nil {
		t.Fatalf("ToSql() error = %v", err)
	}
	for _, want := range []string{
		"FROM translations t JOIN profiles p ON p.id = t.user_id",
		"t.status = $1",
		"t.translator_id IS NULL",
		"ORDER BY t.created_at DESC LIMIT 20 OFFSET 40",
		"AS client_name",
	} {
		if !strings.Contains(sql, want) {
			t.Errorf("sql %q missing %q", sql, want)
		}
	}
	if len(args) != 1 || args[0] != "pending" {
		t.Errorf("args = %v", args)
	}
}

func TestBuildSubscriptionDebit(t *testing.T) {
	sql, args, err := buildSubscriptionDebit(uuid.New(), uuid.New(), 500, time.Now()).ToSql()
	if err != nil {
		t.Fatalf("ToSql() error = %v", err)
	}
	for _, want := range []string{
		"words_remaining = words_remaining - $1",
		"(expires_at IS NULL OR expires_at > $",
		"(words_remaining IS NULL OR words_remaining >= $",
	} {
		if !strings.Contains(sql, want) {
			t.Errorf("sql %q missing %q", sql, want)
		}
	}
	if args[0] != 500 {
		t.Errorf("first arg = %v, want 500", args[0])
	}
}

func TestBuildWithdrawnQuery(t *testing.T) {
	query, err := buildWithdrawnQuery(uuid.New())
	if err != nil {
		t.Fatalf("buildWithdrawnQuery() error = %v", err)
	}
	sql, args, err := query.ToSql()
	if err != nil {
		t.Fatalf("ToSql() error = %v", err)
	}
	if !strings.Contains(sql, "FILTER (WHERE status IN ($1,$2,$3))") {
		t.Errorf("sql = %q", sql)
	}
	want := []any{"pending", "approved", "completed", "completed"}
	for i, w := range want {
		if args[i] != w {
			t.Errorf("args[%d] = %v, want %v", i, args[i], w)
		}
	}
}

func TestBuildEarningsQuery(t *testing.T) {
	sql, args, err := buildEarningsQuery(uuid.New()).ToSql()
	if err != nil {
		t.Fatalf("ToSql() error = %v", err)
	}
	if !strings.Contains(sql, "SUM(price_offered)") || !strings.Contains(sql, "status = $1") {
		t.Errorf("sql = %q", sql)
	}
	if args[0] != "completed" {
		t.Errorf("args = %v", args)
	}
}

func TestBuildApplicationDecisionIsConditional(t *testing.T) {
	sql, _, err := buildApplicationDecision(ApplicationDecision{
		ApplicationID: uuid.New(),
		Status:        models.ApplicationApproved,
		ReviewerID:    uuid.New(),
		Notes:         ptr("welcome"),
		DecidedAt:     time.Now(),
	}).ToSql()
	if err != nil {
		t.Fatalf("ToSql() error = %v", err)
	}
	if !strings.Contains(sql, "WHERE id = $5 AND status = $6") {
		t.Errorf("sql = %q", sql)
	}

	promote, _, err := buildTranslatorPromotion(uuid.New(), time.Now()).ToSql()
	if err != nil {
		t.Fatalf("ToSql() error = %v", err)
	}
	if !strings.Contains(promote, "is_approved_translator = $1") {
		t.Errorf("promotion sql = %q", promote)
	}
}

func TestBuildWithdrawalTransition(t *testing.T) {
	sql, args, err := buildWithdrawalTransition(uuid.New(), models.WithdrawalPending, models.WithdrawalCompleted, uuid.New(), time.Now()).ToSql()
	if err != nil {
		t.Fatalf("ToSql() error = %v", err)
	}
	if !strings.Contains(sql, "WHERE id = $4 AND status = $5") {
		t.Errorf("sql = %q", sql)
	}
	if args[0] != "completed" || args[4] != "pending" {
		t.Errorf("args = %v", args)
	}
}

func TestBuildSubscriptionUpsertAllowance(t *testing.T) {
	sql, _, err := buildSubscriptionUpsert(&models.Subscription{ID: uuid.New(), ExternalID: ptr("sub_1")}).ToSql()
	if err != nil {
		t.Fatalf("ToSql() error = %v", err)
	}
	if !strings.Contains(sql, "ON CONFLICT (external_id) DO UPDATE") {
		t.Errorf("sql = %q", sql)
	}
	if strings.Contains(sql, "words_remaining = EXCLUDED") {
		t.Errorf("upsert must not overwrite words_remaining unconditionally: %q", sql)
	}
	want := "words_remaining = CASE WHEN EXCLUDED.words_remaining IS NOT NULL " +
		"AND EXCLUDED.expires_at > subscriptions.expires_at"
	if !strings.Contains(sql, want) {
		t.Errorf("sql %q missing renewal refill %q", sql, want)
	}
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"no rows", pgx.ErrNoRows, ErrNotFound},
		{"unique", &pgconn.PgError{Code: "23505"}, ErrDuplicate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapError(tt.in); !errors.Is(got, tt.want) {
				t.Errorf("mapError() = %v, want %v", got, tt.want)
			}
		})
	}

	other := errors.New("boom")
	if got := mapError(other); got != other {
		t.Errorf("mapError(other) = %v", got)
	}
}
