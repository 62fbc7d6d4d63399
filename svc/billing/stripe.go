package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// Config holds billing configuration.
type Config struct {
	StripeAPIKey        string `env:"STRIPE_API_KEY,required"`
	StripeWebhookSecret string `env:"STRIPE_WEBHOOK_SECRET,required"`
	CheckoutSuccessURL  string `env:"CHECKOUT_SUCCESS_URL" envDefault:"https://thegrail.app/accounts/overview"`
	CheckoutCancelURL   string `env:"CHECKOUT_CANCEL_URL" envDefault:"https://thegrail.app/accounts/overview"`
}

// StripeProvider implements Provider with the official Stripe SDK.
type StripeProvider struct {
	api    *client.API
	config Config
}

// NewStripeProvider creates a Stripe-backed payment provider.
func NewStripeProvider(cfg Config) (*StripeProvider, error) {
	if cfg.StripeAPIKey == "" {
		return nil, errors.New("billing: stripe API key is required")
	}
	if cfg.StripeWebhookSecret == "" {
		return nil, errors.New("billing: stripe webhook secret is required")
	}

	api := &client.API{}
	api.Init(cfg.StripeAPIKey, nil)

	return &StripeProvider{api: api, config: cfg}, nil
}

// VerifyEvent validates the Stripe-Signature header against the shared
// webhook secret and decodes the event envelope once at the boundary.
func (p *StripeProvider) VerifyEvent(payload []byte, signature string) (*Event, error) {
	stripeEvent, err := webhook.ConstructEvent(payload, signature, p.config.StripeWebhookSecret)
	if err != nil {
		return nil, errors.Join(ErrInvalidSignature, err)
	}

	event := &Event{
		ID:           stripeEvent.ID,
		ProviderType: string(stripeEvent.Type),
	}

	switch stripeEvent.Type {
	case "charge.succeeded", "charge.failed":
		var charge stripe.Charge
		if err := json.Unmarshal(stripeEvent.Data.Raw, &charge); err != nil {
			return nil, fmt.Errorf("%w: malformed charge payload: %v", ErrInvalidSignature, err)
		}
		event.Type = EventType(stripeEvent.Type)
		if charge.BillingDetails != nil {
			event.BillingEmail = charge.BillingDetails.Email
		}
		if charge.Invoice != nil {
			event.InvoiceID = charge.Invoice.ID
		}
	default:
		event.Type = EventUnknown
	}

	return event, nil
}

func (p *StripeProvider) GetInvoice(ctx context.Context, id string) (*Invoice, error) {
	params := &stripe.InvoiceParams{}
	params.Context = ctx

	inv, err := p.api.Invoices.Get(id, params)
	if err != nil {
		return nil, errors.Join(ErrUpstreamProvider, err)
	}

	out := &Invoice{ID: inv.ID}
	if inv.Subscription != nil {
		out.SubscriptionID = inv.Subscription.ID
	}
	return out, nil
}

func (p *StripeProvider) GetSubscription(ctx context.Context, id string) (*Subscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := p.api.Subscriptions.Get(id, params)
	if err != nil {
		return nil, errors.Join(ErrUpstreamProvider, err)
	}
	return fromStripeSubscription(sub), nil
}

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, email, priceID string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		CustomerEmail:      stripe.String(email),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Price:    stripe.String(priceID),
			Quantity: stripe.Int64(1),
		}},
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL: stripe.String(p.config.CheckoutSuccessURL),
		CancelURL:  stripe.String(p.config.CheckoutCancelURL),
	}
	params.Context = ctx

	session, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, errors.Join(ErrUpstreamProvider, err)
	}
	return &CheckoutSession{ID: session.ID, URL: session.URL}, nil
}

func (p *StripeProvider) CancelSubscription(ctx context.Context, id string) (*Subscription, error) {
	params := &stripe.SubscriptionCancelParams{}
	params.Context = ctx

	sub, err := p.api.Subscriptions.Cancel(id, params)
	if err != nil {
		return nil, errors.Join(ErrUpstreamProvider, err)
	}
	return fromStripeSubscription(sub), nil
}

func fromStripeSubscription(sub *stripe.Subscription) *Subscription {
	out := &Subscription{ID: sub.ID, Status: string(sub.Status)}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Plan != nil {
		plan := sub.Items.Data[0].Plan
		out.Plan = Plan{
			Interval:      string(plan.Interval),
			IntervalCount: plan.IntervalCount,
		}
	}
	return out
}
