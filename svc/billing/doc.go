// Package billing processes payment provider webhook events and manages
// subscription checkout sessions.
//
// A successful charge is resolved through its invoice to the owning
// subscription, whose plan interval determines the entitlement period of the
// license issued to the paying account. Events are deduplicated by provider
// event ID so redelivered webhooks never double-issue.
//
// The Provider interface abstracts the payment processor; StripeProvider is
// the production implementation.
package billing
