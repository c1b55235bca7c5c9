package payment

import (
	"context"
	"fmt"
	"time"

	"globaltext/pkg/config"

	"github.com/bytedance/sonic"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

type StripeGateway struct {
	api           *client.API
	webhookSecret string
	successURL    string
	cancelURL     string
}

func NewStripeGateway(cfg *config.PaymentsConfig) *StripeGateway {
	api := &client.API{}
	api.Init(cfg.StripeSecretKey, nil)
	return &StripeGateway{
		api:           api,
		webhookSecret: cfg.StripeWebhookSecret,
		successURL:    cfg.SuccessURL,
		cancelURL:     cfg.CancelURL,
	}
}

func (g *StripeGateway) Name() string { return "stripe" }

func (g *StripeGateway) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	metadata := map[string]string{
		"user_id":        req.UserID,
		"translation_id": req.TranslationID,
		"plan":           req.PlanName,
	}

	priceData := &stripe.CheckoutSessionLineItemPriceDataParams{
		Currency: stripe.String(req.Currency),
		ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(req.Description),
		},
		UnitAmount: stripe.Int64(req.Amount.Shift(2).Round(0).IntPart()),
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(req.Mode)),
		SuccessURL:        stripe.String(g.successURL),
		CancelURL:         stripe.String(g.cancelURL),
		ClientReferenceID: stripe.String(req.UserID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{PriceData: priceData, Quantity: stripe.Int64(1)},
		},
	}
	params.Context = ctx
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	switch req.Mode {
	case ModeSubscription:
		priceData.Recurring = &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
			Interval: stripe.String(string(stripe.PriceRecurringIntervalMonth)),
		}
		params.SubscriptionData = &stripe.CheckoutSessionSubscriptionDataParams{Metadata: metadata}
	default:
		params.PaymentIntentData = &stripe.CheckoutSessionPaymentIntentDataParams{Metadata: metadata}
	}

	sess, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe checkout: %w", err)
	}
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return mapStripeEvent(event)
}

func mapStripeEvent(event stripe.Event) (*Event, error) {
	out := &Event{ID: event.ID, Raw: string(event.Type), Type: EventIgnored}
	if event.Data == nil {
		return out, nil
	}

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := sonic.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
		out.Type = EventCheckoutCompleted
		out.Mode = Mode(sess.Mode)
		out.UserID = firstNonEmpty(sess.Metadata["user_id"], sess.ClientReferenceID)
		out.TranslationID = sess.Metadata["translation_id"]
		out.PlanName = sess.Metadata["plan"]
		out.AmountPaid = decimal.New(sess.AmountTotal, -2)
		if sess.Subscription != nil {
			out.ExternalID = sess.Subscription.ID
		}

	case "payment_intent.payment_failed":
		var pi stripe.PaymentIntent
		if err := sonic.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
		out.Type = EventPaymentFailed
		out.Mode = ModePayment
		out.UserID = pi.Metadata["user_id"]
		out.TranslationID = pi.Metadata["translation_id"]

	case "customer.subscription.created", "customer.subscription.updated", "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := sonic.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
		out.Type = EventSubscriptionUpserted
		if event.Type == "customer.subscription.deleted" {
			out.Type = EventSubscriptionDeleted
		}
		out.Mode = ModeSubscription
		out.ExternalID = sub.ID
		out.Status = string(sub.Status)
		out.UserID = sub.Metadata["user_id"]
		out.PlanName = sub.Metadata["plan"]
		if sub.CurrentPeriodEnd > 0 {
			end := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
			out.PeriodEnd = &end
		}
	}
	return out, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
