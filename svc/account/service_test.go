package account_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thegrail/grail-backend/pkg/jwt"
	"github.com/thegrail/grail-backend/svc/account"
)

func newTestService(t *testing.T) (*account.Service, *memStore, *captureEnqueuer) {
	t.Helper()
	jwtSvc, err := jwt.NewFromString("account-test-signing-key-32-bytes!!!")
	require.NoError(t, err)
	store := newMemStore()
	enq := &captureEnqueuer{}
	svc := account.NewService(account.Config{
		JWTSigningKey:        "unused-here",
		AccessTokenTTL:       30 * time.Minute,
		VerificationTokenTTL: 24 * time.Hour,
	}, store, jwtSvc, enq)
	return svc, store, enq
}

func TestSignup(t *testing.T) {
	t.Parallel()

	svc, _, enq := newTestService(t)

	user, err := svc.Signup(context.Background(), "alice", "alice@example.com", "s3cret-pass")
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.False(t, user.IsEmailVerified)
	require.NotNil(t, user.VerificationToken)
	require.NotNil(t, user.VerificationExpires)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), *user.VerificationExpires, 2*time.Second)
	assert.NotEqual(t, "s3cret-pass", user.PasswordHash)

	emails := enq.verificationEmails()
	require.Len(t, emails, 1)
	assert.Equal(t, "alice@example.com", emails[0].Email)
	assert.Equal(t, *user.VerificationToken, emails[0].Token)
}

func TestSignupDuplicateEmail(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	_, err := svc.Signup(context.Background(), "alice", "alice@example.com", "s3cret-pass")
	require.NoError(t, err)

	_, err = svc.Signup(context.Background(), "alice2", "alice@example.com", "other-pass")
	assert.ErrorIs(t, err, account.ErrEmailTaken)
}

func TestSignupSucceedsWhenEnqueueFails(t *testing.T) {
	t.Parallel()

	jwtSvc, err := jwt.NewFromString("account-test-signing-key-32-bytes!!!")
	require.NoError(t, err)
	svc := account.NewService(account.Config{}, newMemStore(), jwtSvc, &captureEnqueuer{err: errEnqueueFailed})

	// Email dispatch is best-effort; a broken queue must not fail signup.
	user, err := svc.Signup(context.Background(), "alice", "alice@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
}

func TestVerifyEmail(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	user, err := svc.Signup(context.Background(), "alice", "alice@example.com", "s3cret-pass")
	require.NoError(t, err)
	token := *user.VerificationToken

	verified, err := svc.VerifyEmail(context.Background(), token)
	require.NoError(t, err)
	assert.True(t, verified.IsEmailVerified)
	assert.Nil(t, verified.VerificationToken)

	// Single use: the same token cannot be consumed twice.
	_, err = svc.VerifyEmail(context.Background(), token)
	assert.ErrorIs(t, err, account.ErrTokenNotFound)
}

func TestVerifyEmailExpiredToken(t *testing.T) {
	t.Parallel()

	svc, store, _ := newTestService(t)
	user, err := svc.Signup(context.Background(), "alice", "alice@example.com", "s3cret-pass")
	require.NoError(t, err)
	token := *user.VerificationToken

	require.NoError(t, store.SetVerificationToken(context.Background(), user.ID, token, time.Now().Add(-time.Minute)))

	_, err = svc.VerifyEmail(context.Background(), token)
	assert.ErrorIs(t, err, account.ErrTokenExpired)
}

func TestVerifyEmailUnknownToken(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	_, err := svc.VerifyEmail(context.Background(), "never-issued")
	assert.ErrorIs(t, err, account.ErrTokenNotFound)
}

func TestResendVerification(t *testing.T) {
	t.Parallel()

	svc, _, enq := newTestService(t)
	user, err := svc.Signup(context.Background(), "alice", "alice@example.com", "s3cret-pass")
	require.NoError(t, err)
	oldToken := *user.VerificationToken

	require.NoError(t, svc.ResendVerification(context.Background(), "alice@example.com"))

	emails := enq.verificationEmails()
	require.Len(t, emails, 2)
	assert.NotEqual(t, oldToken, emails[1].Token)

	// The replaced token is no longer consumable.
	_, err = svc.VerifyEmail(context.Background(), oldToken)
	assert.ErrorIs(t, err, account.ErrTokenNotFound)

	// The fresh one is.
	_, err = svc.VerifyEmail(context.Background(), emails[1].Token)
	require.NoError(t, err)
}

func TestResendVerificationFailures(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)

	err := svc.ResendVerification(context.Background(), "missing@example.com")
	assert.ErrorIs(t, err, account.ErrNotFound)

	user, err := svc.Signup(context.Background(), "bob", "bob@example.com", "s3cret-pass")
	require.NoError(t, err)
	_, err = svc.VerifyEmail(context.Background(), *user.VerificationToken)
	require.NoError(t, err)

	err = svc.ResendVerification(context.Background(), "bob@example.com")
	assert.ErrorIs(t, err, account.ErrAlreadyVerified)
}

func TestSignIn(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	user, err := svc.Signup(context.Background(), "alice", "alice@example.com", "s3cret-pass")
	require.NoError(t, err)

	t.Run("unverified user gets distinguishable failure", func(t *testing.T) {
		_, got, err := svc.SignIn(context.Background(), "alice@example.com", "s3cret-pass")
		assert.ErrorIs(t, err, account.ErrEmailNotVerified)
		// The user is returned so the API can offer a resend action.
		require.NotNil(t, got)
		assert.Equal(t, "alice@example.com", got.Email)
	})

	_, err = svc.VerifyEmail(context.Background(), *user.VerificationToken)
	require.NoError(t, err)

	t.Run("verified user gets access token", func(t *testing.T) {
		token, got, err := svc.SignIn(context.Background(), "alice@example.com", "s3cret-pass")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)

		jwtSvc, err := jwt.NewFromString("account-test-signing-key-32-bytes!!!")
		require.NoError(t, err)
		var claims jwt.StandardClaims
		require.NoError(t, jwtSvc.Parse(token, &claims))
		assert.Equal(t, "alice", claims.Subject)
		assert.InDelta(t, time.Now().Add(30*time.Minute).Unix(), claims.ExpiresAt, 5)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := svc.SignIn(context.Background(), "alice@example.com", "wrong")
		assert.ErrorIs(t, err, account.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, _, err := svc.SignIn(context.Background(), "nobody@example.com", "whatever")
		assert.ErrorIs(t, err, account.ErrInvalidCredentials)
	})
}

func TestFederatedSignIn(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)

	token, user, err := svc.FederatedSignIn(context.Background(), "Alice", "alice@example.com", "https://example.com/pic.png")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, user.IsEmailVerified)
	assert.Equal(t, "https://example.com/pic.png", user.AvatarURL)
	assert.Empty(t, user.PasswordHash)

	// Second sign-in reuses the account.
	_, again, err := svc.FederatedSignIn(context.Background(), "Alice", "alice@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)

	// OAuth accounts have no usable password.
	_, _, err = svc.SignIn(context.Background(), "alice@example.com", "")
	assert.ErrorIs(t, err, account.ErrInvalidCredentials)
}

func TestGetUser(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	user, err := svc.Signup(context.Background(), "alice", "alice@example.com", "s3cret-pass")
	require.NoError(t, err)

	got, err := svc.GetUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, got.Email)

	_, err = svc.GetUser(context.Background(), "missing")
	assert.ErrorIs(t, err, account.ErrNotFound)
}
