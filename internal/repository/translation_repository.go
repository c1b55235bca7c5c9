package repository

import (
	"context"
	"errors"
	"time"

	"globaltext/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var translationColumns = []string{
	"id", "user_id", "translator_id", "document_name", "source_language", "target_language",
	"word_count", "content", "translated_content", "ai_translated_content", "file_path", "translated_file_path",
	"price_offered", "amount_paid", "subscription_id", "status", "admin_review_status",
	"admin_review_notes", "created_at", "updated_at", "completed_at", "admin_reviewed_at",
}

type TranslationRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewTranslationRepository(db *pgxpool.Pool, logger *zap.Logger) *TranslationRepository {
	return &TranslationRepository{
		db:     db,
		logger: logger,
	}
}

func translationDest(t *models.Translation) []any {
	return []any{
		&t.ID, &t.UserID, &t.TranslatorID, &t.DocumentName, &t.SourceLanguage, &t.TargetLanguage,
		&t.WordCount, &t.Content, &t.TranslatedContent, &t.AITranslatedContent, &t.FilePath, &t.TranslatedFilePath,
		&t.PriceOffered, &t.AmountPaid, &t.SubscriptionID, &t.Status, &t.AdminReviewStatus,
		&t.AdminReviewNotes, &t.CreatedAt, &t.UpdatedAt, &t.CompletedAt, &t.AdminReviewedAt,
	}
}

func scanTranslation(row pgx.Row) (*models.Translation, error) {
	var t models.Translation
	if err := row.Scan(translationDest(&t)...); err != nil {
		return nil, mapError(err)
	}
	return &t, nil
}

func prefixed(alias string, columns []string) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = alias + "." + c
	}
	return out
}

func statusStrings(statuses []models.TranslationStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

// Create inserts a new record. When the record is covered by a subscription
// the words are debited in the same transaction, and ErrConditionFailed is
// returned if the subscription can no longer cover them.
func (r *TranslationRepository) Create(ctx context.Context, t *models.Translation) error {
	insert := psql.Insert("translations").
		Columns("id", "user_id", "document_name", "source_language", "target_language",
			"word_count", "content", "file_path", "price_offered", "amount_paid",
			"subscription_id", "status", "created_at", "updated_at").
		Values(t.ID, t.UserID, t.DocumentName, t.SourceLanguage, t.TargetLanguage,
			t.WordCount, t.Content, t.FilePath, t.PriceOffered, t.AmountPaid,
			t.SubscriptionID, string(t.Status), t.CreatedAt, t.UpdatedAt)

	sql, args, err := insert.ToSql()
	if err != nil {
		return err
	}

	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if t.SubscriptionID != nil {
			debitSQL, debitArgs, err := buildSubscriptionDebit(*t.SubscriptionID, t.UserID, t.WordCount, t.CreatedAt).ToSql()
			if err != nil {
				return err
			}
			tag, err := tx.Exec(ctx, debitSQL, debitArgs...)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				return ErrConditionFailed
			}
		}
		_, err := tx.Exec(ctx, sql, args...)
		return mapError(err)
	})
}

// buildSubscriptionDebit decrements words_remaining; NULL (unlimited) stays NULL.
func buildSubscriptionDebit(subscriptionID, userID uuid.UUID, words int, now time.Time) squirrel.UpdateBuilder {
	return psql.Update("subscriptions").
		Set("words_remaining", squirrel.Expr("words_remaining - ?", words)).
		Set("updated_at", now).
		Where(squirrel.Eq{"id": subscriptionID, "user_id": userID, "status": string(models.SubscriptionActive)}).
		Where(squirrel.Or{squirrel.Eq{"expires_at": nil}, squirrel.Gt{"expires_at": now}}).
		Where(squirrel.Or{squirrel.Eq{"words_remaining": nil}, squirrel.GtOrEq{"words_remaining": words}})
}

func (r *TranslationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Translation, error) {
	sql, args, err := psql.Select(translationColumns...).
		From("translations").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}
	return scanTranslation(r.db.QueryRow(ctx, sql, args...))
}

type TranslationFilter struct {
	UserID       *uuid.UUID
	TranslatorID *uuid.UUID
	Statuses     []models.TranslationStatus
	Limit        int
	Offset       int
}

func buildTranslationList(f TranslationFilter) squirrel.SelectBuilder {
	query := psql.Select(translationColumns...).
		From("translations").
		OrderBy("created_at DESC")
	if f.UserID != nil {
		query = query.Where(squirrel.Eq{"user_id": *f.UserID})
	}
	if f.TranslatorID != nil {
		query = query.Where(squirrel.Eq{"translator_id": *f.TranslatorID})
	}
	if len(f.Statuses) > 0 {
		query = query.Where(squirrel.Eq{"status": statusStrings(f.Statuses)})
	}
	if f.Limit > 0 {
		query = query.Limit(uint64(f.Limit)).Offset(uint64(f.Offset))
	}
	return query
}

func (r *TranslationRepository) List(ctx context.Context, f TranslationFilter) ([]*models.Translation, error) {
	sql, args, err := buildTranslationList(f).ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Translation
	for rows.Next() {
		t, err := scanTranslation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// buildAvailableQuery selects pending, unclaimed records newest first with the
// client's display name.
func buildAvailableQuery(limit, offset int) squirrel.SelectBuilder {
	columns := append(prefixed("t", translationColumns),
		"COALESCE(NULLIF(TRIM(p.first_name || ' ' || p.last_name), ''), p.email) AS client_name")
	query := psql.Select(columns...).
		From("translations t").
		Join("profiles p ON p.id = t.user_id").
		Where(squirrel.Eq{"t.status": string(models.StatusPending), "t.translator_id": nil}).
		OrderBy("t.created_at DESC")
	if limit > 0 {
		query = query.Limit(uint64(limit)).Offset(uint64(offset))
	}
	return query
}

func (r *TranslationRepository) ListAvailable(ctx context.Context, limit, offset int) ([]*models.AvailableTranslation, error) {
	sql, args, err := buildAvailableQuery(limit, offset).ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.AvailableTranslation
	for rows.Next() {
		var a models.AvailableTranslation
		dest := append(translationDest(&a.Translation), &a.ClientName)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

// buildTransition renders a guarded UPDATE ... RETURNING for one record.
func buildTransition(id uuid.UUID, g models.TransitionGuard, p models.TranslationPatch, now time.Time) squirrel.UpdateBuilder {
	query := psql.Update("translations").
		Set("updated_at", now).
		Where(squirrel.Eq{"id": id})

	if p.Status != nil {
		query = query.Set("status", string(*p.Status))
	}
	if p.TranslatorID != nil {
		query = query.Set("translator_id", *p.TranslatorID)
	}
	if p.ClearTranslator {
		query = query.Set("translator_id", nil)
	}
	if p.ClearWork {
		query = query.
			Set("translated_content", nil).
			Set("ai_translated_content", nil).
			Set("translated_file_path", nil)
	}
	if p.TranslatedContent != nil {
		query = query.Set("translated_content", *p.TranslatedContent)
	}
	if p.AITranslatedContent != nil {
		query = query.Set("ai_translated_content", *p.AITranslatedContent)
	}
	if p.TranslatedFilePath != nil {
		query = query.Set("translated_file_path", *p.TranslatedFilePath)
	}
	if p.AdminReviewStatus != nil {
		query = query.Set("admin_review_status", string(*p.AdminReviewStatus))
	}
	if p.AdminReviewNotes != nil {
		query = query.Set("admin_review_notes", *p.AdminReviewNotes)
	}
	if p.CompletedAt != nil {
		query = query.Set("completed_at", *p.CompletedAt)
	}
	if p.AdminReviewedAt != nil {
		query = query.Set("admin_reviewed_at", *p.AdminReviewedAt)
	}
	if p.AmountPaid != nil {
		query = query.Set("amount_paid", *p.AmountPaid)
	}
	if p.ReopenFailed {
		query = query.Set("status", squirrel.Expr("CASE WHEN status = ? THEN ? ELSE status END",
			string(models.StatusPaymentFailed), string(models.StatusPending)))
	}

	if len(g.From) > 0 {
		query = query.Where(squirrel.Eq{"status": statusStrings(g.From)})
	}
	if g.Unassigned {
		query = query.Where(squirrel.Eq{"translator_id": nil})
	}
	if g.TranslatorID != nil {
		query = query.Where(squirrel.Eq{"translator_id": *g.TranslatorID})
	}
	if g.Unpaid {
		query = query.Where(squirrel.Eq{"amount_paid": 0, "subscription_id": nil})
	}

	return query.Suffix(returning(translationColumns))
}

// ApplyTransition performs a guarded update and inserts the notifications in
// the same transaction. A guard mismatch yields ErrConditionFailed, a missing
// row ErrNotFound.
func (r *TranslationRepository) ApplyTransition(
	ctx context.Context,
	id uuid.UUID,
	guard models.TransitionGuard,
	patch models.TranslationPatch,
	notifications []models.Notification,
) (*models.Translation, error) {
	sql, args, err := buildTransition(id, guard, patch, time.Now().UTC()).ToSql()
	if err != nil {
		return nil, err
	}

	var out *models.Translation
	err = pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		t, err := scanTranslation(tx.QueryRow(ctx, sql, args...))
		if errors.Is(err, ErrNotFound) {
			return rowExists(ctx, tx, "translations", id)
		}
		if err != nil {
			return err
		}
		if err := insertNotifications(ctx, tx, notifications); err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *TranslationRepository) CountByStatus(ctx context.Context) (map[models.TranslationStatus]int, error) {
	sql, args, err := psql.Select("status", "COUNT(*)").From("translations").GroupBy("status").ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.TranslationStatus]int)
	for rows.Next() {
		var status models.TranslationStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (r *TranslationRepository) TotalPaid(ctx context.Context) (decimal.Decimal, error) {
	sql, args, err := psql.Select("COALESCE(SUM(amount_paid), 0)").From("translations").ToSql()
	if err != nil {
		return decimal.Zero, err
	}
	var total decimal.Decimal
	err = r.db.QueryRow(ctx, sql, args...).Scan(&total)
	return total, err
}
