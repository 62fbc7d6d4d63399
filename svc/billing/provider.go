package billing

import "context"

// EventType is the normalized payment event type. Provider implementations
// map their wire-level event names onto these; anything else becomes
// EventUnknown and is acknowledged without processing.
type EventType string

const (
	EventChargeSucceeded EventType = "charge.succeeded"
	EventChargeFailed    EventType = "charge.failed"
	EventUnknown         EventType = "unknown"
)

// Event is a payment provider notification, decoded and validated once at
// the boundary. It is consumed, never persisted.
type Event struct {
	ID           string    // provider's event ID, used for dedupe
	Type         EventType // normalized type
	ProviderType string    // original provider event name
	BillingEmail string    // customer email from the charge, may be empty
	InvoiceID    string    // invoice behind the charge, may be empty
}

// Invoice is the slice of a provider invoice the handler needs.
type Invoice struct {
	ID             string `json:"id"`
	SubscriptionID string `json:"subscription_id,omitempty"`
}

// Plan describes a subscription's billing cadence.
type Plan struct {
	Interval      string `json:"interval"` // "month", "year", or a provider-specific value
	IntervalCount int64  `json:"interval_count"`
}

// Subscription is the slice of a provider subscription the handler needs.
type Subscription struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Plan   Plan   `json:"plan"`
}

// CheckoutSession is a hosted checkout created for a subscription purchase.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Provider abstracts the payment provider. Implementations use the official
// provider SDK and must verify webhook signatures before handing events to
// the service.
type Provider interface {
	// VerifyEvent checks the payload signature against the shared webhook
	// secret and decodes the event. Returns ErrInvalidSignature when the
	// signature does not verify.
	VerifyEvent(payload []byte, signature string) (*Event, error)

	GetInvoice(ctx context.Context, id string) (*Invoice, error)
	GetSubscription(ctx context.Context, id string) (*Subscription, error)
	CreateCheckoutSession(ctx context.Context, email, priceID string) (*CheckoutSession, error)
	CancelSubscription(ctx context.Context, id string) (*Subscription, error)
}
