package account

import "time"

// User represents an account persisted in the users collection. The ID is
// assigned at signup and immutable afterwards; verification fields are
// mutated only by the verification flow.
type User struct {
	ID                  string     `bson:"_id" json:"id"`
	Username            string     `bson:"username" json:"username"`
	Email               string     `bson:"email" json:"email"`
	PasswordHash        string     `bson:"password_hash" json:"-"`
	AvatarURL           string     `bson:"avatar_url,omitempty" json:"avatar_url,omitempty"`
	IsEmailVerified     bool       `bson:"is_email_verified" json:"is_email_verified"`
	VerificationToken   *string    `bson:"verification_token,omitempty" json:"-"`
	VerificationExpires *time.Time `bson:"verification_expires,omitempty" json:"-"`
	CreatedAt           time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `bson:"updated_at" json:"updated_at"`
}

// Config holds account service configuration.
type Config struct {
	JWTSigningKey        string        `env:"JWT_SECRET_KEY,required"`                       // JWTSigningKey signs API access tokens.
	AccessTokenTTL       time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"30m"`             // AccessTokenTTL bounds access token lifetime.
	VerificationTokenTTL time.Duration `env:"VERIFICATION_TOKEN_TTL" envDefault:"24h"`       // VerificationTokenTTL bounds email verification tokens.
	FrontendURL          string        `env:"FRONTEND_URL" envDefault:"https://thegrail.app"` // FrontendURL is the base for verification links.
}
