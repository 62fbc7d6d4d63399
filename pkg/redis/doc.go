// Package redis provides a retrying Redis connector and health check helper.
//
// The billing service uses Redis for webhook event deduplication; the
// connector keeps that dependency optional by failing fast with typed errors
// the caller can downgrade to an in-memory fallback.
package redis
