package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"globaltext/internal/models"
	"globaltext/internal/repository"
	"globaltext/pkg/payment"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BillingService creates checkout sessions and applies payment webhooks.
type BillingService struct {
	gateways      map[string]payment.Gateway
	primary       payment.Gateway
	plans         *PlanCatalog
	translations  TranslationStore
	subscriptions SubscriptionStore
	profiles      ProfileStore
	lifecycle     *LifecycleService
	currency      string
	logger        *zap.Logger
	now           func() time.Time
}

// NewBillingService uses primary for new checkouts; webhooks are accepted from
// every gateway passed in.
func NewBillingService(
	primary payment.Gateway,
	others []payment.Gateway,
	plans *PlanCatalog,
	translations TranslationStore,
	subscriptions SubscriptionStore,
	profiles ProfileStore,
	lifecycle *LifecycleService,
	currency string,
	logger *zap.Logger,
) *BillingService {
	gateways := map[string]payment.Gateway{primary.Name(): primary}
	for _, g := range others {
		gateways[g.Name()] = g
	}
	return &BillingService{
		gateways:      gateways,
		primary:       primary,
		plans:         plans,
		translations:  translations,
		subscriptions: subscriptions,
		profiles:      profiles,
		lifecycle:     lifecycle,
		currency:      currency,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *BillingService) Plans() []SubscriptionPlan {
	return s.plans.All()
}

func (s *BillingService) client(ctx context.Context, actorID uuid.UUID) (*models.Profile, error) {
	p, err := actor(ctx, s.profiles, actorID)
	if err != nil {
		return nil, err
	}
	if err := (AccessPolicy{}).Authorize(p, CapabilityClient); err != nil {
		return nil, err
	}
	return p, nil
}

// CheckoutTranslation starts a one-off payment for the client's own pending job.
func (s *BillingService) CheckoutTranslation(ctx context.Context, actorID, translationID uuid.UUID) (*payment.CheckoutSession, error) {
	p, err := s.client(ctx, actorID)
	if err != nil {
		return nil, err
	}
	t, err := s.translations.GetByID(ctx, translationID)
	if err != nil {
		return nil, fromRepo(err, "translation")
	}
	if t.UserID != p.ID {
		return nil, fmt.Errorf("%w: translation", ErrNotFound)
	}
	if t.Status != models.StatusPending && t.Status != models.StatusPaymentFailed {
		return nil, fmt.Errorf("%w: translation %s is %s", ErrStaleState, t.ID, t.Status)
	}
	if t.SubscriptionID != nil || t.AmountPaid.IsPositive() {
		return nil, fmt.Errorf("%w: translation is already paid", ErrConflict)
	}

	sess, err := s.primary.CreateCheckout(ctx, payment.CheckoutRequest{
		Mode:          payment.ModePayment,
		Amount:        t.PriceOffered,
		Currency:      s.currency,
		Description:   fmt.Sprintf("Translation: %s (%d words)", t.DocumentName, t.WordCount),
		CustomerEmail: p.Email,
		CustomerName:  p.DisplayName(),
		UserID:        p.ID.String(),
		TranslationID: t.ID.String(),
	})
	if err != nil {
		return nil, gatewayError(err)
	}
	s.logger.Info("Checkout created",
		zap.String("gateway", s.primary.Name()),
		zap.String("translation_id", t.ID.String()),
		zap.String("amount", t.PriceOffered.StringFixed(2)))
	return sess, nil
}

// CheckoutPlan starts a subscription checkout for a catalog plan.
func (s *BillingService) CheckoutPlan(ctx context.Context, actorID uuid.UUID, planName string) (*payment.CheckoutSession, error) {
	p, err := s.client(ctx, actorID)
	if err != nil {
		return nil, err
	}
	plan, ok := s.plans.Get(planName)
	if !ok {
		return nil, validationf("unknown plan %q", planName)
	}

	sess, err := s.primary.CreateCheckout(ctx, payment.CheckoutRequest{
		Mode:          payment.ModeSubscription,
		Amount:        plan.Price,
		Currency:      s.currency,
		Description:   "GlobalText " + plan.Title,
		CustomerEmail: p.Email,
		CustomerName:  p.DisplayName(),
		UserID:        p.ID.String(),
		PlanName:      plan.Name,
	})
	if err != nil {
		return nil, gatewayError(err)
	}
	s.logger.Info("Subscription checkout created", zap.String("gateway", s.primary.Name()), zap.String("plan", plan.Name))
	return sess, nil
}

func gatewayError(err error) error {
	if errors.Is(err, payment.ErrUnsupportedAmount) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return fmt.Errorf("%w: %v", ErrUpstream, err)
}

func (s *BillingService) CurrentSubscription(ctx context.Context, actorID uuid.UUID) (*models.Subscription, error) {
	sub, err := s.subscriptions.Current(ctx, actorID)
	if err != nil {
		return nil, fromRepo(err, "subscription")
	}
	return sub, nil
}

// HandleWebhook verifies and applies one gateway notification. Events that
// point at unknown or already-moved records are logged and acknowledged so the
// provider stops redelivering them.
func (s *BillingService) HandleWebhook(ctx context.Context, gateway string, payload []byte, signature string) error {
	g, ok := s.gateways[gateway]
	if !ok {
		return fmt.Errorf("%w: unknown gateway %q", ErrNotFound, gateway)
	}
	ev, err := g.ParseWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			return fmt.Errorf("%w: %v", ErrAuthentication, err)
		}
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	log := s.logger.With(zap.String("gateway", gateway), zap.String("event_id", ev.ID), zap.String("event", ev.Raw))
	err = s.apply(ctx, ev)
	switch {
	case err == nil:
		log.Info("Webhook applied", zap.String("type", string(ev.Type)))
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrStaleState), errors.Is(err, ErrValidation):
		log.Warn("Webhook skipped", zap.Error(err))
		return nil
	}
	log.Error("Webhook failed", zap.Error(err))
	return err
}

func (s *BillingService) apply(ctx context.Context, ev *payment.Event) error {
	switch ev.Type {
	case payment.EventCheckoutCompleted:
		if ev.Mode == payment.ModeSubscription {
			return s.upsertSubscription(ctx, ev, models.SubscriptionActive)
		}
		id, err := uuid.Parse(ev.TranslationID)
		if err != nil {
			return validationf("event has no translation id")
		}
		_, err = s.lifecycle.RecordPayment(ctx, id, ev.AmountPaid)
		return err

	case payment.EventPaymentFailed:
		id, err := uuid.Parse(ev.TranslationID)
		if err != nil {
			return validationf("event has no translation id")
		}
		_, err = s.lifecycle.MarkPaymentFailed(ctx, id)
		return err

	case payment.EventSubscriptionUpserted:
		return s.upsertSubscription(ctx, ev, mapSubscriptionStatus(ev.Status))

	case payment.EventSubscriptionDeleted:
		return s.upsertSubscription(ctx, ev, models.SubscriptionCanceled)
	}
	return nil
}

// mapSubscriptionStatus folds provider statuses into the three the store knows.
func mapSubscriptionStatus(status string) models.SubscriptionStatus {
	switch status {
	case "active", "trialing":
		return models.SubscriptionActive
	case "canceled", "incomplete_expired":
		return models.SubscriptionCanceled
	}
	return models.SubscriptionPastDue
}

// renewed reports whether a provider event starts a new billing period.
func renewed(existing *models.Subscription, periodEnd *time.Time) bool {
	return periodEnd != nil && existing.ExpiresAt != nil && periodEnd.After(*existing.ExpiresAt)
}

func (s *BillingService) upsertSubscription(ctx context.Context, ev *payment.Event, status models.SubscriptionStatus) error {
	if ev.ExternalID == "" {
		return validationf("event has no subscription id")
	}

	now := s.now()
	sub := &models.Subscription{
		ID:         uuid.New(),
		PlanName:   ev.PlanName,
		Status:     status,
		StartedAt:  now,
		ExpiresAt:  ev.PeriodEnd,
		AmountPaid: ev.AmountPaid,
		ExternalID: &ev.ExternalID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	existing, err := s.subscriptions.GetByExternalID(ctx, ev.ExternalID)
	switch {
	case err == nil:
		sub.UserID = existing.UserID
		if status == models.SubscriptionActive && renewed(existing, ev.PeriodEnd) {
			name := ev.PlanName
			if name == "" {
				name = existing.PlanName
			}
			if plan, ok := s.plans.Get(name); ok && !plan.Unlimited() {
				words := *plan.Words
				sub.WordsRemaining = &words
			}
		}
	case errors.Is(err, repository.ErrNotFound):
		userID, perr := uuid.Parse(ev.UserID)
		if perr != nil {
			return validationf("subscription %s has no user", ev.ExternalID)
		}
		plan, ok := s.plans.Get(ev.PlanName)
		if !ok {
			return validationf("subscription %s has unknown plan %q", ev.ExternalID, ev.PlanName)
		}
		sub.UserID = userID
		sub.WordsRemaining = plan.Words
		if sub.ExpiresAt == nil {
			end := now.AddDate(0, 0, plan.PeriodDays)
			sub.ExpiresAt = &end
		}
	default:
		return fromRepo(err, "subscription")
	}

	if _, err := s.subscriptions.Upsert(ctx, sub); err != nil {
		return fromRepo(err, "subscription")
	}
	return nil
}
