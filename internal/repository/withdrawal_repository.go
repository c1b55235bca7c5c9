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
	"go.uber.org/zap"
)

var withdrawalColumns = []string{
	"id", "translator_id", "amount", "payment_method", "payment_details", "status",
	"created_at", "processed_at", "processed_by",
}

type WithdrawalRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewWithdrawalRepository(db *pgxpool.Pool, logger *zap.Logger) *WithdrawalRepository {
	return &WithdrawalRepository{
		db:     db,
		logger: logger,
	}
}

func scanWithdrawal(row pgx.Row) (*models.WithdrawalRequest, error) {
	var w models.WithdrawalRequest
	err := row.Scan(
		&w.ID, &w.TranslatorID, &w.Amount, &w.PaymentMethod, &w.PaymentDetails, &w.Status,
		&w.CreatedAt, &w.ProcessedAt, &w.ProcessedBy,
	)
	if err != nil {
		return nil, mapError(err)
	}
	return &w, nil
}

func withdrawalStatusStrings(statuses []models.WithdrawalStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

// Earnings are the offered prices of completed records assigned to the translator.
func buildEarningsQuery(translatorID uuid.UUID) squirrel.SelectBuilder {
	return psql.Select("COALESCE(SUM(price_offered), 0)", "COUNT(*)").
		From("translations").
		Where(squirrel.Eq{"translator_id": translatorID, "status": string(models.StatusCompleted)})
}

func buildWithdrawnQuery(translatorID uuid.UUID) (squirrel.SelectBuilder, error) {
	reserving := squirrel.Eq{"status": withdrawalStatusStrings(models.ReservingWithdrawalStatuses)}
	reservingSQL, reservingArgs, err := reserving.ToSql()
	if err != nil {
		return squirrel.SelectBuilder{}, err
	}
	return psql.Select().
		Column(squirrel.Expr("COALESCE(SUM(amount) FILTER (WHERE "+reservingSQL+"), 0)", reservingArgs...)).
		Column(squirrel.Expr("COALESCE(SUM(amount) FILTER (WHERE status = ?), 0)", string(models.WithdrawalCompleted))).
		From("withdrawal_requests").
		Where(squirrel.Eq{"translator_id": translatorID}), nil
}

func balance(ctx context.Context, q querier, translatorID uuid.UUID) (models.Balance, error) {
	var b models.Balance

	sql, args, err := buildEarningsQuery(translatorID).ToSql()
	if err != nil {
		return b, err
	}
	if err := q.QueryRow(ctx, sql, args...).Scan(&b.Earned, &b.CompletedCount); err != nil {
		return b, err
	}

	withdrawn, err := buildWithdrawnQuery(translatorID)
	if err != nil {
		return b, err
	}
	sql, args, err = withdrawn.ToSql()
	if err != nil {
		return b, err
	}
	if err := q.QueryRow(ctx, sql, args...).Scan(&b.Reserved, &b.Withdrawn); err != nil {
		return b, err
	}
	return b, nil
}

func (r *WithdrawalRepository) Balance(ctx context.Context, translatorID uuid.UUID) (models.Balance, error) {
	return balance(ctx, r.db, translatorID)
}

func buildTranslatorLock(translatorID uuid.UUID) squirrel.SelectBuilder {
	return psql.Select("id").
		From("profiles").
		Where(squirrel.Eq{"id": translatorID}).
		Suffix("FOR UPDATE")
}

// CreateChecked inserts the request only if it fits in the available balance.
// The translator's profile row is locked for the duration, so concurrent
// requests from the same translator are checked one after another.
func (r *WithdrawalRepository) CreateChecked(ctx context.Context, w *models.WithdrawalRequest) (models.Balance, error) {
	lockSQL, lockArgs, err := buildTranslatorLock(w.TranslatorID).ToSql()
	if err != nil {
		return models.Balance{}, err
	}

	insertSQL, insertArgs, err := psql.Insert("withdrawal_requests").
		Columns(withdrawalColumns...).
		Values(w.ID, w.TranslatorID, w.Amount, string(w.PaymentMethod), w.PaymentDetails, string(w.Status),
			w.CreatedAt, w.ProcessedAt, w.ProcessedBy).
		ToSql()
	if err != nil {
		return models.Balance{}, err
	}

	var b models.Balance
	err = pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var id uuid.UUID
		if err := tx.QueryRow(ctx, lockSQL, lockArgs...).Scan(&id); err != nil {
			return mapError(err)
		}

		b, err = balance(ctx, tx, w.TranslatorID)
		if err != nil {
			return err
		}
		if w.Amount.GreaterThan(b.Available()) {
			return ErrInsufficientFunds
		}

		_, err = tx.Exec(ctx, insertSQL, insertArgs...)
		return err
	})
	return b, err
}

func (r *WithdrawalRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	sql, args, err := psql.Select(withdrawalColumns...).
		From("withdrawal_requests").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}
	return scanWithdrawal(r.db.QueryRow(ctx, sql, args...))
}

func (r *WithdrawalRepository) List(ctx context.Context, translatorID *uuid.UUID, status *models.WithdrawalStatus, limit, offset int) ([]*models.WithdrawalRequest, error) {
	query := psql.Select(withdrawalColumns...).
		From("withdrawal_requests").
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset))
	if translatorID != nil {
		query = query.Where(squirrel.Eq{"translator_id": *translatorID})
	}
	if status != nil {
		query = query.Where(squirrel.Eq{"status": string(*status)})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.WithdrawalRequest
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func buildWithdrawalTransition(id uuid.UUID, from, to models.WithdrawalStatus, adminID uuid.UUID, now time.Time) squirrel.UpdateBuilder {
	return psql.Update("withdrawal_requests").
		Set("status", string(to)).
		Set("processed_at", now).
		Set("processed_by", adminID).
		Where(squirrel.Eq{"id": id, "status": string(from)}).
		Suffix(returning(withdrawalColumns))
}

// Transition moves a request from one status to another, failing with
// ErrConditionFailed if it is no longer in the expected status.
func (r *WithdrawalRepository) Transition(
	ctx context.Context,
	id uuid.UUID,
	from, to models.WithdrawalStatus,
	adminID uuid.UUID,
	notification func(*models.WithdrawalRequest) models.Notification,
) (*models.WithdrawalRequest, error) {
	sql, args, err := buildWithdrawalTransition(id, from, to, adminID, time.Now().UTC()).ToSql()
	if err != nil {
		return nil, err
	}

	var out *models.WithdrawalRequest
	err = pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		w, err := scanWithdrawal(tx.QueryRow(ctx, sql, args...))
		if errors.Is(err, ErrNotFound) {
			return rowExists(ctx, tx, "withdrawal_requests", id)
		}
		if err != nil {
			return err
		}
		if notification != nil {
			if err := insertNotifications(ctx, tx, []models.Notification{notification(w)}); err != nil {
				return err
			}
		}
		out = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *WithdrawalRepository) CountPending(ctx context.Context) (int, error) {
	sql, args, err := psql.Select("COUNT(*)").
		From("withdrawal_requests").
		Where(squirrel.Eq{"status": string(models.WithdrawalPending)}).
		ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	err = r.db.QueryRow(ctx, sql, args...).Scan(&n)
	return n, err
}
