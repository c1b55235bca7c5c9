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

var applicationColumns = []string{
	"id", "applicant_id", "full_name", "email", "years_of_experience", "languages", "cv_url",
	"portfolio_url", "linkedin_url", "cover_letter", "status", "reviewed_by", "reviewed_at",
	"review_notes", "created_at",
}

type ApplicationRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewApplicationRepository(db *pgxpool.Pool, logger *zap.Logger) *ApplicationRepository {
	return &ApplicationRepository{
		db:     db,
		logger: logger,
	}
}

func scanApplication(row pgx.Row) (*models.FreelancerApplication, error) {
	var a models.FreelancerApplication
	err := row.Scan(
		&a.ID, &a.ApplicantID, &a.FullName, &a.Email, &a.YearsOfExperience, &a.Languages, &a.CVURL,
		&a.PortfolioURL, &a.LinkedInURL, &a.CoverLetter, &a.Status, &a.ReviewedBy, &a.ReviewedAt,
		&a.ReviewNotes, &a.CreatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	return &a, nil
}

// Create returns ErrDuplicate when the email already has a pending application.
func (r *ApplicationRepository) Create(ctx context.Context, a *models.FreelancerApplication) error {
	sql, args, err := psql.Insert("freelancer_applications").
		Columns(applicationColumns...).
		Values(a.ID, a.ApplicantID, a.FullName, a.Email, a.YearsOfExperience, a.Languages, a.CVURL,
			a.PortfolioURL, a.LinkedInURL, a.CoverLetter, string(a.Status), a.ReviewedBy, a.ReviewedAt,
			a.ReviewNotes, a.CreatedAt).
		ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, sql, args...)
	return mapError(err)
}

func (r *ApplicationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.FreelancerApplication, error) {
	sql, args, err := psql.Select(applicationColumns...).
		From("freelancer_applications").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}
	return scanApplication(r.db.QueryRow(ctx, sql, args...))
}

// Latest returns the applicant's newest application.
func (r *ApplicationRepository) Latest(ctx context.Context, applicantID uuid.UUID) (*models.FreelancerApplication, error) {
	sql, args, err := psql.Select(applicationColumns...).
		From("freelancer_applications").
		Where(squirrel.Eq{"applicant_id": applicantID}).
		OrderBy("created_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, err
	}
	return scanApplication(r.db.QueryRow(ctx, sql, args...))
}

func (r *ApplicationRepository) List(ctx context.Context, status *models.ApplicationStatus, limit, offset int) ([]*models.FreelancerApplication, error) {
	query := psql.Select(applicationColumns...).
		From("freelancer_applications").
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset))
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

	var out []*models.FreelancerApplication
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type ApplicationDecision struct {
	ApplicationID uuid.UUID
	Status        models.ApplicationStatus
	ReviewerID    uuid.UUID
	Notes         *string
	DecidedAt     time.Time
	Notification  *models.Notification
}

func buildApplicationDecision(d ApplicationDecision) squirrel.UpdateBuilder {
	return psql.Update("freelancer_applications").
		Set("status", string(d.Status)).
		Set("reviewed_by", d.ReviewerID).
		Set("reviewed_at", d.DecidedAt).
		Set("review_notes", d.Notes).
		Where(squirrel.Eq{"id": d.ApplicationID, "status": string(models.ApplicationPending)}).
		Suffix(returning(applicationColumns))
}

func buildTranslatorPromotion(profileID uuid.UUID, now time.Time) squirrel.UpdateBuilder {
	return psql.Update("profiles").
		Set("role", squirrel.Expr("CASE WHEN role = 'admin' THEN role ELSE 'translator' END")).
		Set("is_approved_translator", true).
		Set("updated_at", now).
		Where(squirrel.Eq{"id": profileID})
}

// Decide records the admin decision on a pending application. Approval promotes
// the applicant's profile in the same transaction, so the two never diverge.
func (r *ApplicationRepository) Decide(ctx context.Context, d ApplicationDecision) (*models.FreelancerApplication, error) {
	sql, args, err := buildApplicationDecision(d).ToSql()
	if err != nil {
		return nil, err
	}

	var out *models.FreelancerApplication
	err = pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		a, err := scanApplication(tx.QueryRow(ctx, sql, args...))
		if errors.Is(err, ErrNotFound) {
			return rowExists(ctx, tx, "freelancer_applications", d.ApplicationID)
		}
		if err != nil {
			return err
		}

		if d.Status == models.ApplicationApproved {
			promoteSQL, promoteArgs, err := buildTranslatorPromotion(a.ApplicantID, d.DecidedAt).ToSql()
			if err != nil {
				return err
			}
			tag, err := tx.Exec(ctx, promoteSQL, promoteArgs...)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				return ErrNotFound
			}
		}

		if d.Notification != nil {
			if err := insertNotifications(ctx, tx, []models.Notification{*d.Notification}); err != nil {
				return err
			}
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ApplicationRepository) CountPending(ctx context.Context) (int, error) {
	sql, args, err := psql.Select("COUNT(*)").
		From("freelancer_applications").
		Where(squirrel.Eq{"status": string(models.ApplicationPending)}).
		ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	err = r.db.QueryRow(ctx, sql, args...).Scan(&n)
	return n, err
}
