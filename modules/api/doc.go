// Package api exposes the HTTP surface of the backend: account signup and
// sign-in, email verification, subscription checkout and webhooks, license
// validation, file downloads, and health probes.
//
// Handlers translate service errors into HTTP status codes in one place
// (statusFromError); services stay transport-agnostic.
package api
