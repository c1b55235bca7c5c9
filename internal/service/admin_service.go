package service

import (
	"context"

	"globaltext/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"go.uber.org/zap"
)

type Stats struct {
	TranslationsByStatus map[models.TranslationStatus]int
	ProfilesByRole       map[models.Role]int
	ActiveSubscriptions  int
	PendingWithdrawals   int
	PendingApplications  int
	TotalPaid            decimal.Decimal
}

// AdminService backs the dashboard counters and the user list.
type AdminService struct {
	profiles      ProfileStore
	translations  TranslationStore
	subscriptions SubscriptionStore
	withdrawals   WithdrawalStore
	applications  ApplicationStore
	logger        *zap.Logger
}

func NewAdminService(
	profiles ProfileStore,
	translations TranslationStore,
	subscriptions SubscriptionStore,
	withdrawals WithdrawalStore,
	applications ApplicationStore,
	logger *zap.Logger,
) *AdminService {
	return &AdminService{
		profiles:      profiles,
		translations:  translations,
		subscriptions: subscriptions,
		withdrawals:   withdrawals,
		applications:  applications,
		logger:        logger,
	}
}

func (s *AdminService) requireAdmin(ctx context.Context, actorID uuid.UUID) error {
	p, err := actor(ctx, s.profiles, actorID)
	if err != nil {
		return err
	}
	return AccessPolicy{}.Authorize(p, CapabilityAdmin)
}

// Stats runs the dashboard aggregates concurrently.
func (s *AdminService) Stats(ctx context.Context, actorID uuid.UUID) (*Stats, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}

	var out Stats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.TranslationsByStatus, err = s.translations.CountByStatus(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.ProfilesByRole, err = s.profiles.CountByRole(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.ActiveSubscriptions, err = s.subscriptions.CountActive(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.PendingWithdrawals, err = s.withdrawals.CountPending(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.PendingApplications, err = s.applications.CountPending(gctx)
		return err
	})
	g.Go(func() (err error) {
		out.TotalPaid, err = s.translations.TotalPaid(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fromRepo(err, "stats")
	}
	return &out, nil
}

func (s *AdminService) Users(ctx context.Context, actorID uuid.UUID, role *models.Role, limit, offset int) ([]*models.Profile, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	if role != nil && !role.Valid() {
		return nil, validationf("unknown role %q", *role)
	}
	list, err := s.profiles.List(ctx, role, limit, offset)
	if err != nil {
		return nil, fromRepo(err, "profiles")
	}
	return list, nil
}
