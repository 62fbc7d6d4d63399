// Package email sends transactional emails through Mailgun, with a
// filesystem-backed dev sender for local development.
//
// Callers depend on the Sender interface only; the concrete implementation is
// selected at startup from configuration. Delivery failures are surfaced as
// ErrFailedToSend so callers can decide whether a send is fatal — for the
// verification flow it never is.
package email
