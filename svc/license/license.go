package license

import "time"

// License represents an issued entitlement persisted in the licenses
// collection. One license is created per successful payment event, so a user
// may hold several at once.
type License struct {
	ID            string    `bson:"_id" json:"id"`
	UserID        string    `bson:"user_id" json:"user_id"`
	LicenseKey    string    `bson:"license_key" json:"license_key"`
	ExpireDate    time.Time `bson:"expire_date" json:"expire_date"`
	DeviceAddress *string   `bson:"device_address" json:"device_address,omitempty"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
}

// IsExpired reports whether the license has passed its expiry at the given
// time. Expiry is computed at read time; nothing transitions the record.
func (l *License) IsExpired(now time.Time) bool {
	return !l.ExpireDate.After(now)
}

// IsBound reports whether the license has been bound to a device.
func (l *License) IsBound() bool {
	return l.DeviceAddress != nil
}

// UserInfo is the identity payload embedded in license tokens.
type UserInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Config holds license service configuration.
type Config struct {
	SigningKey string `env:"LICENSE_SIGNING_KEY,required"` // SigningKey signs license tokens; rotating it invalidates outstanding tokens.
}
