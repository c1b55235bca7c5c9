package repository

import (
	"context"
	"errors"
	"strings"

	"globaltext/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrConditionFailed   = errors.New("record is not in the expected state")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrDuplicate         = errors.New("record already exists")
)

const uniqueViolation = "23505"

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicate
	}
	return err
}

func insertNotifications(ctx context.Context, q querier, notifications []models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	query := psql.Insert("notifications").
		Columns("id", "user_id", "title", "message", "read", "created_at")
	for _, n := range notifications {
		query = query.Values(n.ID, n.UserID, n.Title, n.Message, n.Read, n.CreatedAt)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}
	_, err = q.Exec(ctx, sql, args...)
	return err
}

// rowExists resolves a zero-row conditional update into NotFound or ConditionFailed.
func rowExists(ctx context.Context, q querier, table string, id any) error {
	sql, args, err := psql.Select("1").From(table).Where(squirrel.Eq{"id": id}).
		Prefix("SELECT EXISTS (").Suffix(")").ToSql()
	if err != nil {
		return err
	}
	var exists bool
	if err := q.QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrConditionFailed
}

func returning(columns []string) string {
	return "RETURNING " + strings.Join(columns, ", ")
}
