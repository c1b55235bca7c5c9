package repository

import (
	"context"
	"time"

	"globaltext/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var profileColumns = []string{
	"id", "email", "password_hash", "first_name", "last_name", "country", "phone",
	"role", "is_approved_translator", "created_at", "updated_at",
}

type ProfileRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewProfileRepository(db *pgxpool.Pool, logger *zap.Logger) *ProfileRepository {
	return &ProfileRepository{
		db:     db,
		logger: logger,
	}
}

func scanProfile(row pgx.Row) (*models.Profile, error) {
	var p models.Profile
	err := row.Scan(
		&p.ID, &p.Email, &p.PasswordHash, &p.FirstName, &p.LastName, &p.Country, &p.Phone,
		&p.Role, &p.IsApprovedTranslator, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	return &p, nil
}

func (r *ProfileRepository) Create(ctx context.Context, p *models.Profile) error {
	query := psql.Insert("profiles").
		Columns(profileColumns...).
		Values(p.ID, p.Email, p.PasswordHash, p.FirstName, p.LastName, p.Country, p.Phone,
			string(p.Role), p.IsApprovedTranslator, p.CreatedAt, p.UpdatedAt)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return mapError(err)
}

func (r *ProfileRepository) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	query := psql.Select(profileColumns...).
		From("profiles").
		Where(squirrel.Expr("lower(email) = lower(?)", email))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}
	return scanProfile(r.db.QueryRow(ctx, sql, args...))
}

func (r *ProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	query := psql.Select(profileColumns...).
		From("profiles").
		Where(squirrel.Eq{"id": id})

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}
	return scanProfile(r.db.QueryRow(ctx, sql, args...))
}

// List returns profiles newest first, optionally filtered by role.
func (r *ProfileRepository) List(ctx context.Context, role *models.Role, limit, offset int) ([]*models.Profile, error) {
	query := psql.Select(profileColumns...).
		From("profiles").
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset))
	if role != nil {
		query = query.Where(squirrel.Eq{"role": string(*role)})
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

	var profiles []*models.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (r *ProfileRepository) CountByRole(ctx context.Context) (map[models.Role]int, error) {
	sql, args, err := psql.Select("role", "COUNT(*)").From("profiles").GroupBy("role").ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.Role]int)
	for rows.Next() {
		var role models.Role
		var n int
		if err := rows.Scan(&role, &n); err != nil {
			return nil, err
		}
		counts[role] = n
	}
	return counts, rows.Err()
}

// UpsertAdmin creates the account or promotes the existing one with that email.
func (r *ProfileRepository) UpsertAdmin(ctx context.Context, p *models.Profile) (uuid.UUID, error) {
	query := psql.Insert("profiles").
		Columns(profileColumns...).
		Values(p.ID, p.Email, p.PasswordHash, p.FirstName, p.LastName, p.Country, p.Phone,
			string(models.RoleAdmin), false, p.CreatedAt, p.UpdatedAt).
		Suffix("ON CONFLICT ((lower(email))) DO UPDATE SET role = 'admin', " +
			"password_hash = EXCLUDED.password_hash, updated_at = EXCLUDED.updated_at RETURNING id")

	sql, args, err := query.ToSql()
	if err != nil {
		return uuid.Nil, err
	}

	var id uuid.UUID
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return uuid.Nil, err
	}
	r.logger.Info("Admin account ensured", zap.String("email", p.Email), zap.String("id", id.String()))
	return id, nil
}

func (r *ProfileRepository) UpdateDetails(ctx context.Context, id uuid.UUID, firstName, lastName string, country, phone *string) (*models.Profile, error) {
	query := psql.Update("profiles").
		Set("first_name", firstName).
		Set("last_name", lastName).
		Set("country", country).
		Set("phone", phone).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": id}).
		Suffix(returning(profileColumns))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}
	return scanProfile(r.db.QueryRow(ctx, sql, args...))
}
