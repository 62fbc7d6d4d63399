// Package license implements the license issuance and validation subsystem.
//
// A license token is a signed, self-describing payload embedding the owning
// user's identity and an expiry timestamp; integrity and expiry are checkable
// without a database lookup. The persisted License record adds the stateful
// part: a device slot bound at most once, on the first successful validation,
// via an atomic compare-and-set in the store.
package license
