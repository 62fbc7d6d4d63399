package billing

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/thegrail/grail-backend/pkg/logger"
	"github.com/thegrail/grail-backend/svc/account"
	"github.com/thegrail/grail-backend/svc/license"
)

// UserDirectory resolves billing emails to accounts. Satisfied by
// *account.Service.
type UserDirectory interface {
	GetUserByEmail(ctx context.Context, email string) (*account.User, error)
}

// LicenseIssuer issues licenses for entitled users. Satisfied by
// *license.Service.
type LicenseIssuer interface {
	Issue(ctx context.Context, info license.UserInfo, duration time.Duration) (*license.License, error)
}

// Service consumes payment provider webhook events and turns successful
// charges into licenses. It also fronts the provider's checkout and
// subscription management calls for the API layer.
type Service struct {
	provider    Provider
	deduper     EventDeduper
	users       UserDirectory
	licenses    LicenseIssuer
	log         *slog.Logger
	callTimeout time.Duration
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the service logger.
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithCallTimeout bounds each individual provider call during webhook
// processing.
func WithCallTimeout(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d > 0 {
			s.callTimeout = d
		}
	}
}

// NewService creates a billing Service. Panics on nil dependencies to fail
// fast during initialization.
func NewService(provider Provider, deduper EventDeduper, users UserDirectory, licenses LicenseIssuer, opts ...ServiceOption) *Service {
	if provider == nil {
		panic("billing: provider is required")
	}
	if deduper == nil {
		panic("billing: deduper is required")
	}
	if users == nil {
		panic("billing: user directory is required")
	}
	if licenses == nil {
		panic("billing: license issuer is required")
	}
	s := &Service{
		provider:    provider,
		deduper:     deduper,
		users:       users,
		licenses:    licenses,
		log:         logger.NewDiscard(),
		callTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HandleEvent verifies and processes one webhook delivery.
//
// Signature failures are the only errors surfaced to the provider; everything
// past verification is acknowledged as success. Provider retries are not
// wanted here: side effects are not transactional, so a retried delivery
// could double-issue, which is exactly what the event-ID dedupe prevents for
// genuine duplicates.
func (s *Service) HandleEvent(ctx context.Context, payload []byte, signature string) error {
	event, err := s.provider.VerifyEvent(payload, signature)
	if err != nil {
		return err
	}

	first, err := s.deduper.MarkProcessed(ctx, event.ID)
	if err != nil {
		// Dedupe is protection, not a gate: if the store is down it is safer
		// to process than to drop a paid customer's event.
		s.log.WarnContext(ctx, "event dedupe unavailable, processing anyway",
			logger.Component("billing"), logger.EventID(event.ID), logger.Error(err))
	} else if !first {
		s.log.InfoContext(ctx, "duplicate event ignored",
			logger.Component("billing"), logger.EventID(event.ID), logger.EventType(event.ProviderType))
		return nil
	}

	switch event.Type {
	case EventChargeSucceeded:
		s.handleChargeSucceeded(ctx, event)
	case EventChargeFailed:
		s.log.InfoContext(ctx, "charge failed",
			logger.Component("billing"), logger.EventID(event.ID), logger.Email(event.BillingEmail))
	default:
		s.log.DebugContext(ctx, "unhandled event type",
			logger.Component("billing"), logger.EventID(event.ID), logger.EventType(event.ProviderType))
	}

	return nil
}

// handleChargeSucceeded walks charge → invoice → subscription → plan and
// issues a license for the billing email's account. Any missing link in the
// chain degrades gracefully: the event is logged and acknowledged with no
// license issued.
func (s *Service) handleChargeSucceeded(ctx context.Context, event *Event) {
	log := s.log.With(logger.Component("billing"), logger.EventID(event.ID))

	if event.InvoiceID == "" {
		log.InfoContext(ctx, "charge without invoice, no license issued")
		return
	}

	invCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	invoice, err := s.provider.GetInvoice(invCtx, event.InvoiceID)
	cancel()
	if err != nil {
		log.ErrorContext(ctx, "failed to fetch invoice", logger.Error(err))
		return
	}
	if invoice.SubscriptionID == "" {
		log.InfoContext(ctx, "invoice without subscription, no license issued")
		return
	}

	subCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	subscription, err := s.provider.GetSubscription(subCtx, invoice.SubscriptionID)
	cancel()
	if err != nil {
		log.ErrorContext(ctx, "failed to fetch subscription", logger.Error(err))
		return
	}

	days := EntitlementDays(subscription.Plan.Interval, subscription.Plan.IntervalCount)
	if days <= 0 {
		log.WarnContext(ctx, "subscription plan grants no entitlement",
			slog.String("interval", subscription.Plan.Interval),
			slog.Int64("interval_count", subscription.Plan.IntervalCount))
		return
	}

	user, err := s.users.GetUserByEmail(ctx, event.BillingEmail)
	if errors.Is(err, account.ErrNotFound) {
		log.InfoContext(ctx, "no account for billing email, no license issued",
			logger.Email(event.BillingEmail))
		return
	}
	if err != nil {
		log.ErrorContext(ctx, "failed to look up user", logger.Error(err))
		return
	}

	lic, err := s.licenses.Issue(ctx, license.UserInfo{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	}, time.Duration(days)*24*time.Hour)
	if err != nil {
		log.ErrorContext(ctx, "failed to issue license", logger.UserID(user.ID), logger.Error(err))
		return
	}

	log.InfoContext(ctx, "license issued for charge",
		logger.UserID(user.ID),
		logger.LicenseID(lic.ID),
		slog.Int64("entitlement_days", days))
}

// CreateCheckoutSession creates a hosted checkout for the given account.
func (s *Service) CreateCheckoutSession(ctx context.Context, email, priceID string) (*CheckoutSession, error) {
	if _, err := s.users.GetUserByEmail(ctx, email); err != nil {
		return nil, err
	}
	return s.provider.CreateCheckoutSession(ctx, email, priceID)
}

// RetrieveSubscription fetches a subscription from the provider.
func (s *Service) RetrieveSubscription(ctx context.Context, id string) (*Subscription, error) {
	return s.provider.GetSubscription(ctx, id)
}

// CancelSubscription cancels a subscription at the provider.
func (s *Service) CancelSubscription(ctx context.Context, id string) (*Subscription, error) {
	return s.provider.CancelSubscription(ctx, id)
}
