package account

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/thegrail/grail-backend/pkg/jwt"
	"github.com/thegrail/grail-backend/pkg/logger"
)

// Enqueuer enqueues background tasks. Satisfied by *queue.Enqueuer.
type Enqueuer interface {
	Enqueue(ctx context.Context, payload any) error
}

// Service implements the account lifecycle: signup, email verification, and
// sign-in. Verification emails are enqueued, never awaited, so a provider
// outage cannot fail account creation.
type Service struct {
	cfg      Config
	store    Store
	jwtSvc   *jwt.Service
	enqueuer Enqueuer
	log      *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the service logger.
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// NewService creates an account Service. Panics on nil dependencies to fail
// fast during initialization.
func NewService(cfg Config, store Store, jwtSvc *jwt.Service, enqueuer Enqueuer, opts ...ServiceOption) *Service {
	if store == nil {
		panic("account: store is required")
	}
	if jwtSvc == nil {
		panic("account: jwt service is required")
	}
	if enqueuer == nil {
		panic("account: enqueuer is required")
	}
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = 30 * time.Minute
	}
	if cfg.VerificationTokenTTL <= 0 {
		cfg.VerificationTokenTTL = 24 * time.Hour
	}

	s := &Service{cfg: cfg, store: store, jwtSvc: jwtSvc, enqueuer: enqueuer, log: logger.NewDiscard()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Signup creates an unverified account and enqueues the verification email.
func (s *Service) Signup(ctx context.Context, username, email, password string) (*User, error) {
	if _, err := s.store.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	token := newVerificationToken()
	expires := time.Now().Add(s.cfg.VerificationTokenTTL)
	now := time.Now()

	user := &User{
		ID:                  uuid.NewString(),
		Username:            username,
		Email:               email,
		PasswordHash:        string(hash),
		IsEmailVerified:     false,
		VerificationToken:   &token,
		VerificationExpires: &expires,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.store.Create(ctx, user); err != nil {
		return nil, err
	}

	s.enqueueVerificationEmail(ctx, user.Email, token)

	s.log.InfoContext(ctx, "user signed up",
		logger.Component("account"),
		logger.UserID(user.ID),
		logger.Email(user.Email),
	)
	return user, nil
}

// VerifyEmail consumes a verification token. The transition is terminal: the
// store clears the token atomically with marking the user verified, so a
// second call with the same token fails.
func (s *Service) VerifyEmail(ctx context.Context, token string) (*User, error) {
	user, err := s.store.ConsumeVerificationToken(ctx, token, time.Now())
	if errors.Is(err, ErrTokenNotFound) {
		// Distinguish an expired-but-present token from one that never
		// existed or was already consumed.
		if _, lookupErr := s.store.FindByVerificationToken(ctx, token); lookupErr == nil {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "email verified",
		logger.Component("account"),
		logger.UserID(user.ID),
	)
	return user, nil
}

// ResendVerification issues a fresh token, invalidating the outstanding one,
// and enqueues a new verification email.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.IsEmailVerified {
		return ErrAlreadyVerified
	}

	token := newVerificationToken()
	if err := s.store.SetVerificationToken(ctx, user.ID, token, time.Now().Add(s.cfg.VerificationTokenTTL)); err != nil {
		return err
	}

	s.enqueueVerificationEmail(ctx, user.Email, token)
	return nil
}

// SignIn authenticates with email and password and returns a short-lived
// access token. An unverified account fails with ErrEmailNotVerified so the
// API can offer a resend action instead of a generic credentials error.
func (s *Service) SignIn(ctx context.Context, email, password string) (string, *User, error) {
	user, err := s.store.FindByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	if !user.IsEmailVerified {
		return "", user, ErrEmailNotVerified
	}

	token, err := s.accessToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// FederatedSignIn signs in a user authenticated by an external identity
// provider, creating the account on first sight. Provider-asserted emails are
// treated as verified; no password is set.
func (s *Service) FederatedSignIn(ctx context.Context, name, email, picture string) (string, *User, error) {
	user, err := s.store.FindByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		now := time.Now()
		user = &User{
			ID:              uuid.NewString(),
			Username:        name,
			Email:           email,
			AvatarURL:       picture,
			IsEmailVerified: true,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.store.Create(ctx, user); err != nil {
			return "", nil, err
		}
		s.log.InfoContext(ctx, "federated account created",
			logger.Component("account"),
			logger.UserID(user.ID),
			logger.Email(user.Email),
		)
	} else if err != nil {
		return "", nil, err
	}

	token, err := s.accessToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// GetUser returns the user with the given ID.
func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.store.FindByID(ctx, id)
}

// GetUserByEmail returns the user with the given email.
func (s *Service) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return s.store.FindByEmail(ctx, email)
}

func (s *Service) accessToken(user *User) (string, error) {
	now := time.Now()
	token, err := s.jwtSvc.Generate(jwt.StandardClaims{
		Subject:   user.Username,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(s.cfg.AccessTokenTTL).Unix(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}
	return token, nil
}

// enqueueVerificationEmail hands the email off to the queue. Failures are
// logged only: email delivery must never roll back the triggering operation.
func (s *Service) enqueueVerificationEmail(ctx context.Context, email, token string) {
	err := s.enqueuer.Enqueue(ctx, VerificationEmail{Email: email, Token: token})
	if err != nil {
		s.log.ErrorContext(ctx, "failed to enqueue verification email",
			logger.Component("account"),
			logger.Email(email),
			logger.Error(err),
		)
	}
}

// newVerificationToken returns an opaque high-entropy token. Unlike license
// keys it carries no payload; possession of the stored secret is the proof.
func newVerificationToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("account: crypto/rand unavailable: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}
