// Package jwt implements HMAC-SHA256 signed JWT tokens for API access
// authentication.
//
// Only HS256 is supported; tokens carrying any other algorithm in the header
// are rejected to prevent algorithm confusion. Claims types that implement
// Valid() error get their temporal claims checked during Parse.
package jwt
