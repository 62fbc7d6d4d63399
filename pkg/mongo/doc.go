// Package mongo provides MongoDB connection management for the application.
//
// Configuration is environment-driven (see Config), connection attempts are
// retried to tolerate transient failures at startup, and a health check
// function integrates with the HTTP health endpoint.
package mongo
