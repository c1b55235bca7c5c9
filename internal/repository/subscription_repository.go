package repository

import (
	"context"

	"globaltext/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var subscriptionColumns = []string{
	"id", "user_id", "plan_name", "status", "words_remaining", "started_at", "expires_at",
	"amount_paid", "external_id", "created_at", "updated_at",
}

type SubscriptionRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewSubscriptionRepository(db *pgxpool.Pool, logger *zap.Logger) *SubscriptionRepository {
	return &SubscriptionRepository{
		db:     db,
		logger: logger,
	}
}

func scanSubscription(row pgx.Row) (*models.Subscription, error) {
	var s models.Subscription
	err := row.Scan(
		&s.ID, &s.UserID, &s.PlanName, &s.Status, &s.WordsRemaining, &s.StartedAt, &s.ExpiresAt,
		&s.AmountPaid, &s.ExternalID, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	return &s, nil
}

// Current returns the client's most recently started subscription, whatever its status.
func (r *SubscriptionRepository) Current(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	sql, args, err := psql.Select(subscriptionColumns...).
		From("subscriptions").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("(status = 'active') DESC", "started_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}
	return scanSubscription(r.db.QueryRow(ctx, sql, args...))
}

// buildSubscriptionUpsert keys on external_id. The start date is only written
// on insert. The word allowance is reset only when the event carries one and
// moves expires_at forward, so redelivered events cannot refill it twice.
func buildSubscriptionUpsert(s *models.Subscription) squirrel.InsertBuilder {
	return psql.Insert("subscriptions").
		Columns(subscriptionColumns...).
		Values(s.ID, s.UserID, s.PlanName, string(s.Status), s.WordsRemaining, s.StartedAt, s.ExpiresAt,
			s.AmountPaid, s.ExternalID, s.CreatedAt, s.UpdatedAt).
		Suffix("ON CONFLICT (external_id) DO UPDATE SET " +
			"status = EXCLUDED.status, " +
			"words_remaining = CASE WHEN EXCLUDED.words_remaining IS NOT NULL " +
			"AND EXCLUDED.expires_at > subscriptions.expires_at " +
			"THEN EXCLUDED.words_remaining ELSE subscriptions.words_remaining END, " +
			"expires_at = COALESCE(EXCLUDED.expires_at, subscriptions.expires_at), " +
			"plan_name = CASE WHEN EXCLUDED.plan_name <> '' THEN EXCLUDED.plan_name ELSE subscriptions.plan_name END, " +
			"amount_paid = GREATEST(subscriptions.amount_paid, EXCLUDED.amount_paid), " +
			"updated_at = EXCLUDED.updated_at " +
			returning(subscriptionColumns))
}

func (r *SubscriptionRepository) Upsert(ctx context.Context, s *models.Subscription) (*models.Subscription, error) {
	sql, args, err := buildSubscriptionUpsert(s).ToSql()
	if err != nil {
		return nil, err
	}
	return scanSubscription(r.db.QueryRow(ctx, sql, args...))
}

func (r *SubscriptionRepository) GetByExternalID(ctx context.Context, externalID string) (*models.Subscription, error) {
	sql, args, err := psql.Select(subscriptionColumns...).
		From("subscriptions").
		Where(squirrel.Eq{"external_id": externalID}).
		ToSql()
	if err != nil {
		return nil, err
	}
	return scanSubscription(r.db.QueryRow(ctx, sql, args...))
}

func (r *SubscriptionRepository) CountActive(ctx context.Context) (int, error) {
	sql, args, err := psql.Select("COUNT(*)").
		From("subscriptions").
		Where(squirrel.Eq{"status": string(models.SubscriptionActive)}).
		Where("(expires_at IS NULL OR expires_at > now())").
		ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	err = r.db.QueryRow(ctx, sql, args...).Scan(&n)
	return n, err
}
