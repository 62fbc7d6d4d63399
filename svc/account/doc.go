// Package account implements the user account lifecycle: signup with email
// verification, sign-in with password or a federated identity, and the opaque
// single-use verification tokens that gate activation.
//
// Verification emails travel through the task queue; the request path only
// enqueues. Account state lives in the users collection with a unique email
// index enforced at the store level.
package account
